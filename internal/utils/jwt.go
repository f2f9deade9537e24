// Package utils holds the token and password helpers used by auth.
package utils

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is the raw value handed to the client. Only its SHA-256
// hash is persisted.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Claims are the access token claims: the subject is the user id in
// decimal and Role the caller's role.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// UserID parses the subject back into a user id.
func (c *Claims) UserID() (uint64, error) {
    return strconv.ParseUint(c.Subject, 10, 64)
}

// NewAccessToken signs an access token for userID valid for ttl from now.
func NewAccessToken(secret string, userID uint64, role model.Role, ttl time.Duration, now time.Time) (AccessToken, error) {
    exp := now.UTC().Add(ttl)
    claims := Claims{
        Role: string(role),
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            IssuedAt:  jwt.NewNumericDate(now.UTC()),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrTokenRole is returned for a well-signed token carrying an unknown role.
var ErrTokenRole = errors.New("token carries unknown role")

// ParseAccessToken verifies raw with secret and returns its claims. Only
// HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (*Claims, model.Role, error) {
    claims := &Claims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return nil, "", err
    }
    if !tok.Valid {
        return nil, "", jwt.ErrTokenInvalidClaims
    }
    role, ok := model.ParseRole(claims.Role)
    if !ok {
        return nil, "", ErrTokenRole
    }
    return claims, role, nil
}

// NewRefreshToken returns 48 random bytes hex-encoded, valid ttlDays from now.
func NewRefreshToken(ttlDays int, now time.Time) (RefreshToken, error) {
    buf := make([]byte, 48)
    if _, err := rand.Read(buf); err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: hex.EncodeToString(buf),
        Exp: now.UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw is the hex SHA-256 of a raw refresh token, the form stored
// in refresh_tokens.token_hash.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
