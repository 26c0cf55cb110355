package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/store"
)

// TokenCookie is the cookie carrying the JWT
const TokenCookie = "token"

const (
	userKey  = "auth.user"
	tokenKey = "auth.token"
)

// TokenFromRequest reads the Authorization Bearer header, then the token cookie
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware authenticates the request when it carries a token. Invalid
// or missing tokens are ignored; use RequireAuth to enforce.
func Middleware(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c.Request)
		if token == "" {
			c.Next()
			return
		}
		u, _, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.logger.Debug("auth: token rejected", "error", err)
			c.Next()
			return
		}
		c.Set(userKey, u)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Middleware authenticated the request
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *store.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*store.User)
	return user
}

// CurrentToken returns the token of the authenticated request
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// SetTokenCookie writes the JWT as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, token, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the JWT cookie
func ClearTokenCookie(c *gin.Context) {
	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
}
