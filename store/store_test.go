package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "seotools.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	hash := "bcrypt-hash"

	u, err := s.CreateUser(ctx, User{Email: " Ada@Example.com ", Name: "Ada", PasswordHash: &hash})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, ProviderLocal, u.Provider)

	got, err := s.UserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, hash, *got.PasswordHash)
	assert.Nil(t, got.GoogleID)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)

	_, err = s.CreateUser(ctx, User{Email: "ada@example.com", Name: "Other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertGoogleUser(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		u, err := s.UpsertGoogleUser(ctx, "g-1", "new@example.com", "New", "https://img.example/a.png")
		require.NoError(t, err)
		assert.Equal(t, ProviderGoogle, u.Provider)
		require.NotNil(t, u.Avatar)

		again, err := s.UpsertGoogleUser(ctx, "g-1", "new@example.com", "New", "")
		require.NoError(t, err)
		assert.Equal(t, u.ID, again.ID)
	})

	t.Run("LinksExistingEmail", func(t *testing.T) {
		local, err := s.CreateUser(ctx, User{Email: "local@example.com", Name: "Local"})
		require.NoError(t, err)

		linked, err := s.UpsertGoogleUser(ctx, "g-2", "local@example.com", "Local", "")
		require.NoError(t, err)
		assert.Equal(t, local.ID, linked.ID)
		require.NotNil(t, linked.GoogleID)
		assert.Equal(t, "g-2", *linked.GoogleID)
		assert.Equal(t, ProviderLocal, linked.Provider)
	})
}

func TestSessionsExpireLazily(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	u, err := s.CreateUser(ctx, User{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	sess, err := s.CreateSession(ctx, u.ID, "tok", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	got, err := s.SessionByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	now = now.Add(2 * time.Hour)
	_, err = s.SessionByToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrExpired)
	// the expired row was removed by the lookup
	_, err = s.SessionByToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateSession(ctx, u.ID, "tok2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSession(ctx, "tok2"))
	_, err = s.SessionByToken(ctx, "tok2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.DeleteSession(ctx, "never-existed"))
}

func TestToolResults(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	u, err := s.CreateUser(ctx, User{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	_, err = s.SaveResult(ctx, &u.ID, "keyword-research", "running shoes", map[string]int{"total": 3})
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = s.SaveResult(ctx, &u.ID, "rank", "seo", []string{"a"})
	require.NoError(t, err)
	anon, err := s.SaveResult(ctx, nil, "rank", "anon", nil)
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)

	got, err := s.ResultsByUser(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rank", got[0].ToolType)
	assert.Equal(t, "keyword-research", got[1].ToolType)

	var body map[string]int
	require.NoError(t, json.Unmarshal(got[1].Results, &body))
	assert.Equal(t, 3, body["total"])

	limited, err := s.ResultsByUser(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.ResultsByUser(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
