package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apprel "github.com/heraerp/platform/internal/application/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
)

// RelationshipHandler serves the relationship endpoints of one organization
type RelationshipHandler struct {
	BaseHandler
	relationshipService *apprel.Service
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(relationshipService *apprel.Service) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// Create links two entities
func (h *RelationshipHandler) Create(c *gin.Context) {
	var req apprel.CreateRelationshipRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.relationshipService.Create(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List filters edges by endpoint, type and activity
func (h *RelationshipHandler) List(c *gin.Context) {
	var req apprel.QueryRelationshipsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	var ok bool
	if req.FromEntityID, ok = h.optionalUUID(c, "from_entity_id"); !ok {
		return
	}
	if req.ToEntityID, ok = h.optionalUUID(c, "to_entity_id"); !ok {
		return
	}
	orgID, _ := scope(c)

	result, err := h.relationshipService.Query(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(c, result)
}

// GetByID returns one edge
func (h *RelationshipHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, _ := scope(c)

	resp, err := h.relationshipService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deactivate marks an edge inactive and keeps it
func (h *RelationshipHandler) Deactivate(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.relationshipService.Deactivate(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes an edge
func (h *RelationshipHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.relationshipService.Delete(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// optionalUUID parses a query parameter that may be absent
func (h *BaseHandler) optionalUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.ErrorWithCode(c, shared.CodeValidationFailure, "Invalid "+name+": must be a UUID")
		return nil, false
	}
	return &id, true
}
