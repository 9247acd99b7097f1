package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	id := Identity{UserID: "u1", Email: "a@example.com", Name: "Ada", Role: "organizer"}
	tok, err := NewAccessToken(secret, id, 15*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	got, err := ParseAccessToken(secret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	valid, err := NewAccessToken(secret, Identity{UserID: "u1", Role: "user"}, time.Minute)
	require.NoError(t, err)
	expired, err := NewAccessToken(secret, Identity{UserID: "u1", Role: "user"}, -time.Minute)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other-secret", valid.Token},
		{"expired", secret, expired.Token},
		{"garbage", secret, "not.a.jwt"},
		{"empty", secret, ""},
		{"hs512", secret, sign(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u1", "role": "user", "exp": exp})},
		{"no exp", secret, sign(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": "user"})},
		{"no role", secret, sign(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp})},
		{"no subject", secret, sign(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user", "exp": exp})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.secret, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	b, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.NotEqual(t, a.Raw, HashRefreshRaw(a.Raw))
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
}
