package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/store"
)

const stateCookie = "oauth_state"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (s *Server) signedIn(c *gin.Context, code int, token string, u *store.User) {
	auth.SetTokenCookie(c, token, int(s.auth.SessionTTL().Seconds()), s.opts.SecureCookies)
	c.JSON(code, authResponse{Token: token, User: u})
}

func (s *Server) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	token, u, err := s.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.signedIn(c, http.StatusCreated, token, u)
}

func (s *Server) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	token, u, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.signedIn(c, http.StatusOK, token, u)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), auth.CurrentToken(c)); err != nil {
		s.fail(c, err)
		return
	}
	auth.ClearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": auth.CurrentUser(c)})
}

func (s *Server) googleLogin(c *gin.Context) {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := hex.EncodeToString(b)

	target, err := s.auth.GoogleLoginURL(state)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/api/auth/google", "", s.opts.SecureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func (s *Server) googleCallback(c *gin.Context) {
	if !s.auth.GoogleEnabled() {
		s.fail(c, auth.ErrOAuthDisabled)
		return
	}
	want, err := c.Cookie(stateCookie)
	if err != nil || want == "" || c.Query("state") != want {
		c.AbortWithStatusJSON(http.StatusBadRequest, fieldError{Error: "invalid oauth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/api/auth/google", "", s.opts.SecureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, fieldError{Error: "missing authorization code", Field: "code"})
		return
	}
	token, u, err := s.auth.GoogleCallback(c.Request.Context(), code)
	if err != nil {
		s.logger.Warn("http: google sign-in failed", "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, fieldError{Error: "google sign-in failed"})
		return
	}
	s.signedIn(c, http.StatusOK, token, u)
}

func (s *Server) listResults(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	results, err := s.results.ResultsByUser(c.Request.Context(), auth.CurrentUser(c).ID, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if results == nil {
		results = []store.ToolResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
