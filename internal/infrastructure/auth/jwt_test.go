package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:      "test-secret-key-at-least-32-chars",
		Issuer:      "https://auth.example.test",
		Audience:    "authenticated",
		ServiceRole: "service_role",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(GenerateTokenInput{Subject: "ext-user-1", Email: "jane@example.com"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ext-user-1", claims.ExternalID())
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
	assert.False(t, svc.IsServiceRole(claims))
}

func TestJWTService_ServiceRole(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(GenerateTokenInput{Subject: "ops", Role: "service_role"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, svc.IsServiceRole(claims))
}

func TestJWTService_Rejections(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateToken(GenerateTokenInput{Subject: "u", TTL: -time.Minute})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "https://auth.example.test", Audience: "authenticated"})
		token, err := other.GenerateToken(GenerateTokenInput{Subject: "u"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "https://auth.example.test", Audience: "anon"})
		token, err := other.GenerateToken(GenerateTokenInput{Subject: "u"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidAudience)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := svc.GenerateToken(GenerateTokenInput{})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
