// Package auth verifies bearer tokens issued by the external identity
// provider. The platform never issues production tokens itself; it only maps
// the token subject to an internal USER entity.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/heraerp/platform/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidAudience  = errors.New("token audience is not accepted")
	ErrMissingSubject   = errors.New("missing sub in claims")
)

// Claims are the claims read from an identity provider token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ExternalID returns the identity provider's user id
func (c *Claims) ExternalID() string {
	return c.Subject
}

// JWTService verifies HS256 tokens with a shared secret
type JWTService struct {
	secret      []byte
	issuer      string
	audience    string
	serviceRole string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		serviceRole: cfg.ServiceRole,
	}
}

// ValidateToken parses tokenString and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	// Service tokens are not bound to the end-user audience
	if s.audience != "" && !s.IsServiceRole(claims) && !slices.Contains(claims.Audience, s.audience) {
		return nil, ErrInvalidAudience
	}
	return claims, nil
}

// IsServiceRole reports whether the token carries platform-level access
func (s *JWTService) IsServiceRole(c *Claims) bool {
	return s.serviceRole != "" && c.Role == s.serviceRole
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	Subject string
	Email   string
	Role    string
	TTL     time.Duration
}

// GenerateToken signs a token the way the identity provider does. It is
// used by local tooling and tests.
func (s *JWTService) GenerateToken(input GenerateTokenInput) (string, error) {
	now := time.Now()
	ttl := input.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	role := input.Role
	if role == "" {
		role = "authenticated"
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   input.Subject,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: input.Email,
		Role:  role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
