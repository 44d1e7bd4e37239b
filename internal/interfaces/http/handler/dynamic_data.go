package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appdynamic "github.com/heraerp/platform/internal/application/dynamicdata"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
)

// DynamicDataHandler serves the dynamic field endpoints of one organization
type DynamicDataHandler struct {
	BaseHandler
	fieldService *appdynamic.Service
}

// NewDynamicDataHandler creates a new DynamicDataHandler
func NewDynamicDataHandler(fieldService *appdynamic.Service) *DynamicDataHandler {
	return &DynamicDataHandler{fieldService: fieldService}
}

// SetFields upserts the listed fields of an entity in one unit of work
func (h *DynamicDataHandler) SetFields(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req appdynamic.SetFieldsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	fields, err := h.fieldService.SetMany(c.Request.Context(), orgID, entityID, req.Fields, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

// GetFields lists the fields of an entity, or the one named by ?field_name=
func (h *DynamicDataHandler) GetFields(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, _ := scope(c)

	fields, err := h.fieldService.Get(c.Request.Context(), orgID, entityID, c.Query("field_name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

// Delete removes the fields selected by id, by entity and name, or all
// fields of an entity
func (h *DynamicDataHandler) Delete(c *gin.Context) {
	var req appdynamic.DeleteFieldsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	result, err := h.fieldService.Delete(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BatchDelete runs each selection independently. Any failed item turns the
// answer into 207 with per-item outcomes.
func (h *DynamicDataHandler) BatchDelete(c *gin.Context) {
	var req appdynamic.BatchDeleteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	result := h.fieldService.BatchDelete(c.Request.Context(), orgID, req, actor)
	if result.Failed > 0 {
		c.JSON(http.StatusMultiStatus, dto.Response{Success: false, Data: result})
		return
	}
	h.Success(c, result)
}
