// Package store persists users, sessions and saved tool results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound   = errors.New("store: not found")
	ErrEmailTaken = errors.New("store: email already registered")
	ErrExpired    = errors.New("store: session expired")
)

// Auth providers
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Name         string    `json:"name"`
	GoogleID     *string   `json:"-"`
	Avatar       *string   `json:"avatar"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type ToolResult struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"userId"`
	ToolType  string          `json:"toolType"`
	Query     string          `json:"query"`
	Results   json.RawMessage `json:"results"`
	CreatedAt time.Time       `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    name TEXT NOT NULL,
    google_id TEXT UNIQUE,
    avatar TEXT,
    provider TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tool_results (
    id TEXT PRIMARY KEY,
    user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
    tool_type TEXT NOT NULL,
    query TEXT NOT NULL,
    results TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS tool_results_user ON tool_results(user_id, created_at);
`

// Store wraps the SQLite database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func millis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}

// CreateUser inserts u with a fresh id. Emails are stored lowercased.
func (s *Store) CreateUser(ctx context.Context, u User) (*User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if u.Provider == "" {
		u.Provider = ProviderLocal
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, email, password_hash, name, google_id, avatar, provider, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, nullable(u.PasswordHash), u.Name, nullable(u.GoogleID), nullable(u.Avatar), u.Provider, millis(u.CreatedAt),
	)
	if err != nil {
		if isConstraint(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("store: insert user: %w", err)
	}
	return &u, nil
}

const userColumns = `id, email, password_hash, name, google_id, avatar, provider, created_at`

func (s *Store) userWhere(ctx context.Context, cond string, arg any) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg)
	var (
		u                      User
		hash, googleID, avatar sql.NullString
		created                int64
	)
	if err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &googleID, &avatar, &u.Provider, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	u.PasswordHash, u.GoogleID, u.Avatar = ptr(hash), ptr(googleID), ptr(avatar)
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.userWhere(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) UserByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return s.userWhere(ctx, "google_id = ?", googleID)
}

// UpsertGoogleUser returns the user signed in with googleID, linking an
// existing account with the same email or creating a new one
func (s *Store) UpsertGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*User, error) {
	if u, err := s.UserByGoogleID(ctx, googleID); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var pic *string
	if avatar != "" {
		pic = &avatar
	}
	existing, err := s.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET google_id = ?, avatar = COALESCE(avatar, ?) WHERE id = ?`,
			googleID, nullable(pic), existing.ID); err != nil {
			return nil, fmt.Errorf("store: link google account: %w", err)
		}
		return s.UserByID(ctx, existing.ID)
	case errors.Is(err, ErrNotFound):
		return s.CreateUser(ctx, User{Email: email, Name: name, GoogleID: &googleID, Avatar: pic, Provider: ProviderGoogle})
	default:
		return nil, err
	}
}

// CreateSession stores token for userID, valid for ttl
func (s *Store) CreateSession(ctx context.Context, userID, token string, ttl time.Duration) (*Session, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	sess := &Session{ID: uuid.NewString(), UserID: userID, Token: token, ExpiresAt: now.Add(ttl), CreatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sessions(id, user_id, token, expires_at, created_at) VALUES(?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Token, millis(sess.ExpiresAt), millis(sess.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert session: %w", err)
	}
	return sess, nil
}

// SessionByToken returns the session of token. Expiry is checked here: an
// expired session is deleted and reported as ErrExpired.
func (s *Store) SessionByToken(ctx context.Context, token string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM user_sessions WHERE token = ?`, token)
	var (
		sess             Session
		expires, created int64
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.Token, &expires, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan session: %w", err)
	}
	sess.ExpiresAt, sess.CreatedAt = fromMillis(expires), fromMillis(created)

	if !s.now().Before(sess.ExpiresAt) {
		if err := s.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	return &sess, nil
}

// DeleteSession removes token. Deleting an unknown token is not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	return nil
}

// SaveResult stores a tool run. userID may be nil for anonymous runs.
func (s *Store) SaveResult(ctx context.Context, userID *string, toolType, query string, results any) (*ToolResult, error) {
	body, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("store: encode results: %w", err)
	}
	r := &ToolResult{
		ID:        uuid.NewString(),
		UserID:    userID,
		ToolType:  toolType,
		Query:     query,
		Results:   body,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tool_results(id, user_id, tool_type, query, results, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		r.ID, nullable(r.UserID), r.ToolType, r.Query, string(r.Results), millis(r.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert tool result: %w", err)
	}
	return r, nil
}

// ResultsByUser lists the saved results of userID, most recent first
func (s *Store) ResultsByUser(ctx context.Context, userID string, limit int) ([]ToolResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, tool_type, query, results, created_at FROM tool_results
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query tool results: %w", err)
	}
	defer rows.Close()

	out := []ToolResult{}
	for rows.Next() {
		var (
			r       ToolResult
			uid     sql.NullString
			body    string
			created int64
		)
		if err := rows.Scan(&r.ID, &uid, &r.ToolType, &r.Query, &body, &created); err != nil {
			return nil, fmt.Errorf("store: scan tool result: %w", err)
		}
		r.UserID = ptr(uid)
		r.Results = json.RawMessage(body)
		r.CreatedAt = fromMillis(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
