// Package handler implements the HTTP endpoints of the platform API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// List sends a page of items with offset pagination meta
func List[T any](c *gin.Context, result *shared.ListResult[T]) {
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// HandleError renders domain errors with their code and details. Anything
// else is logged and answered with INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	if de, ok := shared.AsDomainError(err); ok {
		c.Set(middleware.ErrorCodeKey, de.Code)
		c.JSON(dto.GetHTTPStatus(de.Code), dto.NewDomainErrorResponse(de, requestID))
		return
	}

	logger.L(c.Request.Context()).Error("unhandled error", zap.Error(err), zap.String("route", c.FullPath()))
	c.Set(middleware.ErrorCodeKey, shared.CodeInternal)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(shared.CodeInternal, "An unexpected error occurred", requestID))
}

// BindJSON binds the body into req and answers the binding error if any
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindingError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into req and answers the binding error if any
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleBindingError(c, err)
		return false
	}
	return true
}

// PathID parses a UUID path parameter
func (h *BaseHandler) PathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ErrorWithCode(c, shared.CodeValidationFailure, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// scope returns the organization and actor resolved by OrganizationScope
func scope(c *gin.Context) (orgID, actor uuid.UUID) {
	return middleware.GetOrganizationID(c), middleware.GetActorID(c)
}
