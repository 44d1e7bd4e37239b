package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/heraerp/platform/internal/application/identity"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
)

// AuthHandler resolves callers and onboards users
type AuthHandler struct {
	BaseHandler
	identityService *appidentity.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(identityService *appidentity.Service) *AuthHandler {
	return &AuthHandler{identityService: identityService}
}

// Introspect returns the organizations and roles of the bearer
func (h *AuthHandler) Introspect(c *gin.Context) {
	externalID := middleware.GetExternalID(c)
	if externalID == "" {
		h.ErrorWithCode(c, shared.CodeUnauthorized, "Token carries no subject")
		return
	}

	resp, err := h.identityService.Introspect(c.Request.Context(), externalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Onboard links an external identity into an organization with a role.
// Service role only.
func (h *AuthHandler) Onboard(c *gin.Context) {
	var req appidentity.OnboardUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.identityService.OnboardUser(c.Request.Context(), req, middleware.GetActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
