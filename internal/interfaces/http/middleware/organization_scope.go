package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/heraerp/platform/internal/application/identity"
	"github.com/heraerp/platform/internal/domain/identity"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
)

// Organization scope context keys
const (
	OrganizationIDKey     = "organization_id"
	ActorIDKey            = "actor_id"
	OrganizationAccessKey = "organization_access"
	OrganizationParam     = "org_id"
)

// IdentityResolver resolves the caller's provisioned identity
type IdentityResolver interface {
	Introspect(ctx context.Context, externalID string) (*appidentity.IntrospectionResponse, error)
}

// OrganizationScope binds the request to the :org_id path parameter and the
// acting USER entity. End users must be members of the organization; the
// service role names its actor in X-Actor-User-ID, required on writes.
func OrganizationScope(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param(OrganizationParam))
		if err != nil {
			abortWithError(c, shared.CodeValidationFailure, "Invalid organization id")
			return
		}

		var actorID uuid.UUID
		if IsServiceRole(c) {
			actorID, err = serviceActor(c)
			if err != nil {
				abortWithError(c, shared.CodeValidationFailure, err.Error())
				return
			}
		} else {
			resolved, err := resolver.Introspect(c.Request.Context(), GetExternalID(c))
			if err != nil {
				abortWithDomainError(c, err)
				return
			}
			access, ok := resolved.Access(orgID)
			if !ok {
				abortWithError(c, shared.CodeForbidden, "Caller is not a member of this organization")
				return
			}
			actorID = resolved.UserEntityID
			c.Set(OrganizationAccessKey, access)
		}

		c.Set(OrganizationIDKey, orgID)
		c.Set(ActorIDKey, actorID)
		ctx := logger.WithOrganizationID(c.Request.Context(), orgID.String())
		if actorID != uuid.Nil {
			ctx = logger.WithActorID(ctx, actorID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ServiceActor reads the optional X-Actor-User-ID header on service-role routes
// that are not organization scoped.
func ServiceActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := serviceActor(c)
		if err != nil {
			abortWithError(c, shared.CodeValidationFailure, err.Error())
			return
		}
		c.Set(ActorIDKey, actorID)
		if actorID != uuid.Nil {
			c.Request = c.Request.WithContext(logger.WithActorID(c.Request.Context(), actorID.String()))
		}
		c.Next()
	}
}

func serviceActor(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(ActorHeader)
	if raw == "" {
		if isReadMethod(c.Request.Method) {
			return uuid.Nil, nil
		}
		return uuid.Nil, shared.NewValidationError(ActorHeader + " header is required for service writes")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.NewValidationError(ActorHeader + " must be a UUID")
	}
	return id, nil
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func abortWithDomainError(c *gin.Context, err error) {
	if de, ok := shared.AsDomainError(err); ok {
		c.Set(ErrorCodeKey, de.Code)
		c.AbortWithStatusJSON(dto.GetHTTPStatus(de.Code), dto.NewDomainErrorResponse(de, GetRequestID(c)))
		return
	}
	_ = c.Error(err)
	abortWithError(c, shared.CodeInternal, "An internal error occurred")
}

// GetOrganizationID returns the organization bound by OrganizationScope
func GetOrganizationID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(OrganizationIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetActorID returns the acting USER entity, or uuid.Nil for anonymous service reads
func GetActorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ActorIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetOrganizationAccess returns the end user's resolved access to the scoped organization
func GetOrganizationAccess(c *gin.Context) (identity.OrganizationAccess, bool) {
	if v, ok := c.Get(OrganizationAccessKey); ok {
		access, ok := v.(identity.OrganizationAccess)
		return access, ok
	}
	return identity.OrganizationAccess{}, false
}
