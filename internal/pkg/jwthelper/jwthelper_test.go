package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("test-signing-key")

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(key, "user-1", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(key, "user-1", "admin", -time.Minute)
	require.NoError(t, err)

	otherKey, err := GenerateToken([]byte("other"), "user-1", "admin", time.Hour)
	require.NoError(t, err)

	noSubject, err := GenerateToken(key, "", "admin", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, UserClaims{Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"no subject":  noSubject,
		"alg none":    none,
		"not a token": "abc.def",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(key, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
