// Package auth signs users in with email and password or Google, issuing
// HS256 JWTs backed by a stored session.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/seo-optimizer/seotools/store"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrUnauthorized       = errors.New("auth: not authenticated")
	ErrOAuthDisabled      = errors.New("auth: google sign-in is not configured")
)

// InputError reports a bad registration or login request
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserStore is the persistence auth needs. *store.Store implements it.
type UserStore interface {
	CreateUser(ctx context.Context, u store.User) (*store.User, error)
	UserByID(ctx context.Context, id string) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UpsertGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*store.User, error)
	CreateSession(ctx context.Context, userID, token string, ttl time.Duration) (*store.Session, error)
	SessionByToken(ctx context.Context, token string) (*store.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Config configures a Service
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	Google     OAuthConfig
}

// Service registers and authenticates users
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	google *oauth2.Config
	logger *slog.Logger
	now    func() time.Time
}

// GenerateSecret returns a random hex secret of MinSecretLen bytes
func GenerateSecret() []byte {
	b := make([]byte, MinSecretLen)
	_, _ = rand.Read(b)
	return []byte(hex.EncodeToString(b))
}

// NewService creates a Service. The secret must be at least MinSecretLen bytes.
func NewService(users UserStore, cfg Config, logger *slog.Logger) (*Service, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{users: users, secret: cfg.Secret, ttl: cfg.SessionTTL, logger: logger, now: time.Now}
	if cfg.Google.Enabled() {
		s.google = NewGoogleProvider(cfg.Google)
	}
	return s, nil
}

// GoogleEnabled reports whether Google sign-in is configured
func (s *Service) GoogleEnabled() bool { return s.google != nil }

// SessionTTL is how long issued tokens stay valid
func (s *Service) SessionTTL() time.Duration { return s.ttl }

// Register creates a local account and signs it in
func (s *Service) Register(ctx context.Context, email, password, name string) (string, *store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return "", nil, &InputError{Field: "email", Message: "must be a valid email address"}
	}
	if len(password) < MinPasswordLen {
		return "", nil, &InputError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("auth: hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, store.User{Email: email, Name: name, PasswordHash: &hash, Provider: store.ProviderLocal})
	if errors.Is(err, store.ErrEmailTaken) {
		return "", nil, &InputError{Field: "email", Message: "is already registered"}
	}
	if err != nil {
		return "", nil, err
	}
	token, err := s.issue(ctx, u)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("auth: user registered", "user", u.ID)
	return token, u, nil
}

// Login checks email and password and issues a token
func (s *Service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if u.PasswordHash == nil || !CheckPassword(*u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.issue(ctx, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Logout ends the session of token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// Authenticate validates token and its session and returns the user
func (s *Service) Authenticate(ctx context.Context, token string) (*store.User, *Claims, error) {
	claims, err := ValidateToken(s.secret, token, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sess, err := s.users.SessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrExpired) {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != claims.UserID {
		return nil, nil, fmt.Errorf("%w: session does not match token", ErrUnauthorized)
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}

// GoogleLoginURL is the consent page URL for state
func (s *Service) GoogleLoginURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthDisabled
	}
	return s.google.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// GoogleCallback exchanges code for the Google profile, links or creates the
// user and issues a token
func (s *Service) GoogleCallback(ctx context.Context, code string) (string, *store.User, error) {
	if s.google == nil {
		return "", nil, ErrOAuthDisabled
	}
	profile, err := FetchGoogleUser(ctx, s.google, code)
	if err != nil {
		return "", nil, err
	}
	u, err := s.users.UpsertGoogleUser(ctx, profile.ProviderUserID, profile.Email, profile.Name, profile.AvatarURL)
	if err != nil {
		return "", nil, err
	}
	token, err := s.issue(ctx, u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) issue(ctx context.Context, u *store.User) (string, error) {
	claims := &Claims{UserID: u.ID, Email: u.Email, Provider: u.Provider}
	token, err := GenerateToken(s.secret, claims, s.now(), s.ttl)
	if err != nil {
		return "", err
	}
	if _, err := s.users.CreateSession(ctx, u.ID, token, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}
