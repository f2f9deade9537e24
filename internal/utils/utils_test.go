package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    now := time.Now()
    tok, err := NewAccessToken("secret", 42, model.RoleOperator, 15*time.Minute, now)
    require.NoError(t, err)

    claims, role, err := ParseAccessToken("secret", tok.Token)
    require.NoError(t, err)
    assert.Equal(t, model.RoleOperator, role)
    uid, err := claims.UserID()
    require.NoError(t, err)
    assert.Equal(t, uint64(42), uid)

    _, _, err = ParseAccessToken("other", tok.Token)
    assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
    tok, err := NewAccessToken("secret", 1, model.RoleClient, time.Minute, time.Now().Add(-time.Hour))
    require.NoError(t, err)
    _, _, err = ParseAccessToken("secret", tok.Token)
    assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessTokenUnknownRole(t *testing.T) {
    tok, err := NewAccessToken("secret", 1, model.Role("root"), time.Minute, time.Now())
    require.NoError(t, err)
    _, _, err = ParseAccessToken("secret", tok.Token)
    assert.ErrorIs(t, err, ErrTokenRole)
}

func TestRefreshToken(t *testing.T) {
    now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
    a, err := NewRefreshToken(7, now)
    require.NoError(t, err)
    b, err := NewRefreshToken(7, now)
    require.NoError(t, err)

    assert.Len(t, a.Raw, 96)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Equal(t, now.Add(7*24*time.Hour), a.Exp)
    assert.Len(t, HashRefreshRaw(a.Raw), 64)
    assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPassword(t *testing.T) {
    h, err := HashPassword("correct horse", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(h, "correct horse"))
    assert.False(t, VerifyPassword(h, "wrong"))

    _, err = HashPassword("x", 100)
    assert.Error(t, err)
}
