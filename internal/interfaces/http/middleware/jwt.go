package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Authentication context keys
const (
	JWTClaimsKey      = "jwt_claims"
	JWTServiceRoleKey = "jwt_service_role"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuthMiddleware verifies the bearer token with default configuration
func JWTAuthMiddleware(jwtService *auth.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/health"},
		Logger:     logger,
	})
}

// JWTAuthMiddlewareWithConfig verifies the bearer token issued by the identity
// provider and stores its claims for downstream middleware.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, shared.CodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortWithError(c, shared.CodeUnauthorized, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortWithError(c, shared.CodeUnauthorized, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(token)
		if err != nil {
			log.Debug("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			handleAuthError(c, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTServiceRoleKey, cfg.JWTService.IsServiceRole(claims))
		c.Next()
	}
}

func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenNotYetValid):
		abortWithError(c, dto.ErrCodeTokenInvalid, "Token is not yet valid")
	case errors.Is(err, auth.ErrInvalidAudience):
		abortWithError(c, dto.ErrCodeTokenInvalid, "Token audience is not accepted")
	case errors.Is(err, auth.ErrMissingSubject):
		abortWithError(c, dto.ErrCodeTokenInvalid, "Token carries no subject")
	default:
		abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid token")
	}
}

// ServiceRoleOnly rejects callers whose token does not carry the service role
func ServiceRoleOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsServiceRole(c) {
			abortWithError(c, shared.CodeForbidden, "This operation requires the service role")
			return
		}
		c.Next()
	}
}

// GetJWTClaims retrieves the verified claims, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetExternalID returns the identity provider subject of the caller
func GetExternalID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.ExternalID()
	}
	return ""
}

// IsServiceRole reports whether the caller authenticated with the service role
func IsServiceRole(c *gin.Context) bool {
	return c.GetBool(JWTServiceRoleKey)
}
