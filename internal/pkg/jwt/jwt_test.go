package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key-for-testing"
	testIssuer = "quran-app-test"
)

func newTestManager() *Manager {
	return NewManager(testSecret, testIssuer, 15*time.Minute, 24*time.Hour)
}

func TestGenerateAccessToken(t *testing.T) {
	m := newTestManager()

	t.Run("generate valid token", func(t *testing.T) {
		token, err := m.GenerateAccessToken(123)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := m.ParseAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(123), claims.UserID)
		assert.Equal(t, TypeAccess, claims.TokenType)
		assert.Equal(t, testIssuer, claims.Issuer)
	})

	t.Run("different users get different tokens", func(t *testing.T) {
		token1, err := m.GenerateAccessToken(1)
		require.NoError(t, err)
		token2, err := m.GenerateAccessToken(2)
		require.NoError(t, err)

		assert.NotEqual(t, token1, token2)
	})

	t.Run("large user ID", func(t *testing.T) {
		largeID := int64(9223372036854775807)
		token, err := m.GenerateAccessToken(largeID)
		require.NoError(t, err)

		claims, err := m.ParseAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, largeID, claims.UserID)
	})

	t.Run("expiry follows access ttl", func(t *testing.T) {
		token, err := m.GenerateAccessToken(7)
		require.NoError(t, err)

		claims, err := m.ParseAccessToken(token)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	m := newTestManager()

	token, jti, err := m.GenerateRefreshToken(42)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, jti, claims.ID)

	_, jti2, err := m.GenerateRefreshToken(42)
	require.NoError(t, err)
	assert.NotEqual(t, jti, jti2)
}

func TestParseToken_TypeMismatch(t *testing.T) {
	m := newTestManager()

	access, err := m.GenerateAccessToken(1)
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken(1)
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken(t *testing.T) {
	m := newTestManager()

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("wrong-secret", testIssuer, time.Minute, time.Hour)
		token, _ := other.GenerateAccessToken(123)

		claims, err := m.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewManager(testSecret, "someone-else", time.Minute, time.Hour)
		token, _ := other.GenerateAccessToken(123)

		_, err := m.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("invalid token string", func(t *testing.T) {
		claims, err := m.ParseAccessToken("invalid.token.string")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := m.ParseAccessToken("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := m.ParseAccessToken("not-a-jwt-at-all")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := Claims{
			UserID:    123,
			TokenType: TypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(testSecret))

		result, err := m.ParseAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Nil(t, result)
	})

	t.Run("none signing method", func(t *testing.T) {
		claims := Claims{
			UserID:    123,
			TokenType: TypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

		result, err := m.ParseAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, result)
	})
}

func TestManager_ClockControlsExpiry(t *testing.T) {
	m := newTestManager()
	token, err := m.GenerateAccessToken(5)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(20 * time.Minute) }

	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewManager_DefaultTTLs(t *testing.T) {
	m := NewManager(testSecret, testIssuer, 0, 0)
	assert.Equal(t, 15*time.Minute, m.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, m.RefreshTTL())
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "invalid token", ErrInvalidToken.Error())
	assert.Equal(t, "token has expired", ErrExpiredToken.Error())
}
