package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	appentity "github.com/heraerp/platform/internal/application/entity"
	"github.com/heraerp/platform/internal/domain/shared"
)

// EntityHandler serves the entity endpoints of one organization
type EntityHandler struct {
	BaseHandler
	entityService *appentity.Service
}

// NewEntityHandler creates a new EntityHandler
func NewEntityHandler(entityService *appentity.Service) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

// Upsert creates an entity or updates the one matching entity_id or its natural key.
// Inserts answer 201, updates 200.
func (h *EntityHandler) Upsert(c *gin.Context) {
	var req appentity.UpsertEntityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.entityService.Upsert(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Created {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}

// List reads entities matching the query filters
func (h *EntityHandler) List(c *gin.Context) {
	var req appentity.ReadEntitiesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	orgID, _ := scope(c)

	result, err := h.entityService.Read(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(c, result)
}

// Search reads entities with a JSON filter body, which can carry id lists
func (h *EntityHandler) Search(c *gin.Context) {
	var req appentity.ReadEntitiesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, _ := scope(c)

	result, err := h.entityService.Read(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(c, result)
}

// GetByID returns one entity, optionally expanded with fields and edges
func (h *EntityHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, _ := scope(c)

	resp, err := h.entityService.Get(c.Request.Context(), orgID, id,
		c.Query("expand_dynamic") == "true", c.Query("expand_relationships") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes an entity. ?force=true soft-deletes a referenced one.
func (h *EntityHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		var err error
		if force, err = strconv.ParseBool(raw); err != nil {
			h.ErrorWithCode(c, shared.CodeValidationFailure, "force must be a boolean")
			return
		}
	}
	orgID, actor := scope(c)

	resp, err := h.entityService.Delete(c.Request.Context(), orgID, id, force, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Archive moves an entity to archived
func (h *EntityHandler) Archive(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.entityService.Archive(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Recover brings an archived or soft-deleted entity back to active
func (h *EntityHandler) Recover(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.entityService.Recover(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
