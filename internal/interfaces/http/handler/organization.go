package handler

import (
	"github.com/gin-gonic/gin"
	apporg "github.com/heraerp/platform/internal/application/organization"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
)

// OrganizationHandler provisions and administers tenants. Every route is
// service role only.
type OrganizationHandler struct {
	BaseHandler
	organizationService *apporg.Service
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(organizationService *apporg.Service) *OrganizationHandler {
	return &OrganizationHandler{organizationService: organizationService}
}

// Create provisions an organization and its ORG entity
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req apporg.CreateOrganizationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.organizationService.Create(c.Request.Context(), req, middleware.GetActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List pages through organizations
func (h *OrganizationHandler) List(c *gin.Context) {
	var req apporg.ListOrganizationsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.organizationService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(c, result)
}

// GetByID returns one organization
func (h *OrganizationHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c, middleware.OrganizationParam)
	if !ok {
		return
	}

	resp, err := h.organizationService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateSettings replaces the settings document
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	id, ok := h.PathID(c, middleware.OrganizationParam)
	if !ok {
		return
	}
	var req apporg.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.organizationService.UpdateSettings(c.Request.Context(), id, req, middleware.GetActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deactivate stops an organization from accepting writes
func (h *OrganizationHandler) Deactivate(c *gin.Context) {
	id, ok := h.PathID(c, middleware.OrganizationParam)
	if !ok {
		return
	}

	resp, err := h.organizationService.Deactivate(c.Request.Context(), id, middleware.GetActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
