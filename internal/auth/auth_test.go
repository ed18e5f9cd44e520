package auth

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moody/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssuer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer := NewIssuer(secret, time.Hour, WithNow(clock))

	t.Run("issue and parse", func(t *testing.T) {
		token, claims, err := issuer.Issue("user-1", "ada@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, claims.ID)
		assert.Equal(t, now.Add(time.Hour), claims.Expiry())

		parsed, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", parsed.UserID())
		assert.Equal(t, "ada@example.com", parsed.Email)
		assert.Equal(t, claims.ID, parsed.ID)
	})

	t.Run("token ids are unique", func(t *testing.T) {
		_, a, err := issuer.Issue("user-1", "")
		require.NoError(t, err)
		_, b, err := issuer.Issue("user-1", "")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := issuer.Issue("user-1", "")
		require.NoError(t, err)

		later := NewIssuer(secret, time.Hour, WithNow(func() time.Time { return now.Add(2 * time.Hour) }))
		_, err = later.Parse(token)
		assert.ErrorIs(t, err, shared.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := issuer.Issue("user-1", "")
		require.NoError(t, err)

		_, err = NewIssuer("another-secret-of-some-length", time.Hour, WithNow(clock)).Parse(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("state tokens are not access tokens", func(t *testing.T) {
		state, err := issuer.IssueState("user-2")
		require.NoError(t, err)

		userID, err := issuer.ParseState(state)
		require.NoError(t, err)
		assert.Equal(t, "user-2", userID)

		_, err = issuer.Parse(state)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)

		access, _, err := issuer.Issue("user-2", "")
		require.NoError(t, err)
		_, err = issuer.ParseState(access)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("state expires", func(t *testing.T) {
		state, err := issuer.IssueState("user-2")
		require.NoError(t, err)

		later := NewIssuer(secret, time.Hour, WithNow(func() time.Time { return now.Add(StateTTL + time.Minute) }))
		_, err = later.ParseState(state)
		assert.ErrorIs(t, err, shared.ErrTokenExpired)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", hash)

	assert.NoError(t, CheckPassword(hash, "supersecret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), shared.ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "wrong"), shared.ErrInvalidCredentials)
}

func TestNewCode(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]{5}$`)
	for range 5 {
		code, hash, err := NewCode()
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
		assert.NoError(t, CheckPassword(hash, code))
		assert.False(t, strings.Contains(hash, code))
	}
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRevoker(func() time.Time { return now })
	defer r.Close()

	require.NoError(t, r.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, r.Revoke(ctx, "past", now.Add(-time.Minute)))

	revoked, err := r.Revoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = r.Revoked(ctx, "past")
	assert.False(t, revoked)
	revoked, _ = r.Revoked(ctx, "b")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = r.Revoked(ctx, "a")
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "c", now.Add(time.Minute)))
	assert.Len(t, r.ids, 1)
}

func TestNewRevoker(t *testing.T) {
	logger := shared.NewLogger(nil)

	r, err := NewRevoker(context.Background(), shared.RedisConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryRevoker{}, r)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRevoker(ctx, shared.RedisConfig{Addr: "127.0.0.1:1"}, logger)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
