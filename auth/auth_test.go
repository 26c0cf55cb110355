package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/seo-optimizer/seotools/store"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	svc, err := NewService(st, cfg, nil)
	require.NoError(t, err)
	return svc
}

func TestTokens(t *testing.T) {
	now := time.Now()

	_, err := GenerateToken([]byte("short"), &Claims{UserID: "u"}, now, time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	tok, err := GenerateToken(testSecret, &Claims{UserID: "u1", Email: "a@example.com"}, now, time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.NotEmpty(t, claims.ID)

	other, err := GenerateToken(testSecret, &Claims{UserID: "u1"}, now, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)

	_, err = ValidateToken([]byte("another-secret-another-secret-xx"), tok)
	assert.Error(t, err)

	t.Run("Expired", func(t *testing.T) {
		_, err := ValidateToken(testSecret, tok, jwt.WithTimeFunc(func() time.Time { return now.Add(2 * time.Hour) }))
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("OtherAlgorithm", func(t *testing.T) {
		hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "u1"}).SignedString(testSecret)
		require.NoError(t, err)
		_, err = ValidateToken(testSecret, hs512)
		assert.Error(t, err)

		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ValidateToken(testSecret, none)
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestNewServiceRejectsWeakSecret(t *testing.T) {
	_, err := NewService(nil, Config{Secret: []byte("short")}, nil)
	assert.ErrorIs(t, err, ErrWeakSecret)
	assert.Len(t, GenerateSecret(), 2*MinSecretLen)
}

func TestRegisterLoginLogout(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	tok, u, err := svc.Register(ctx, "Ada@Example.com", "s3cret-pass", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "ada", u.Name)

	got, claims, err := svc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, store.ProviderLocal, claims.Provider)

	_, _, err = svc.Register(ctx, "ada@example.com", "another-pass", "Ada")
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "email", ie.Field)

	_, _, err = svc.Login(ctx, "ada@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok2, _, err := svc.Login(ctx, "ADA@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, tok2))
	_, _, err = svc.Authenticate(ctx, tok2)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the first session is unaffected
	_, _, err = svc.Authenticate(ctx, tok)
	assert.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, _, err = svc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, Config{})
	tests := []struct {
		email, password, field string
	}{
		{"not-an-email", "long-enough", "email"},
		{"", "long-enough", "email"},
		{"a@example.com", "short", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.email+"/"+tt.password, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.email, tt.password, "")
			var ie *InputError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestGoogleCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			assert.Equal(t, "the-code", r.FormValue("code"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"abc","token_type":"Bearer","expires_in":3600}`)
		case "/userinfo":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"id": "g-42", "email": "grace@example.com", "verified_email": true,
				"name": "Grace", "picture": "https://img.example/g.png",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	prev := GoogleUserInfoURL
	GoogleUserInfoURL = srv.URL + "/userinfo"
	t.Cleanup(func() { GoogleUserInfoURL = prev })

	svc := newTestService(t, Config{Google: OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}})
	require.True(t, svc.GoogleEnabled())
	svc.google.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}

	loginURL, err := svc.GoogleLoginURL("state-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loginURL, srv.URL+"/auth?"))
	assert.Contains(t, loginURL, "state=state-1")

	tok, u, err := svc.GoogleCallback(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)
	assert.Equal(t, store.ProviderGoogle, u.Provider)
	_, _, err = svc.Authenticate(context.Background(), tok)
	assert.NoError(t, err)

	t.Run("Disabled", func(t *testing.T) {
		plain := newTestService(t, Config{})
		_, err := plain.GoogleLoginURL("x")
		assert.ErrorIs(t, err, ErrOAuthDisabled)
		_, _, err = plain.GoogleCallback(context.Background(), "x")
		assert.ErrorIs(t, err, ErrOAuthDisabled)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t, Config{})
	tok, _, err := svc.Register(context.Background(), "mw@example.com", "password-1", "MW")
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(svc))
	r.GET("/open", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentToken(c))
	})

	do := func(path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if mutate != nil {
			mutate(req)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/open", nil)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do("/open", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) })
	assert.Equal(t, "mw@example.com", w.Body.String())

	w = do("/private", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: tok}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tok, w.Body.String())

	w = do("/private", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do("/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
