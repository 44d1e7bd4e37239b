package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/heraerp/platform/internal/application/ledger"
)

// IdempotencyKeyHeader deduplicates transaction creation across retries
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler serves the ledger endpoints of one organization
type TransactionHandler struct {
	BaseHandler
	ledgerService *appledger.Service
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *appledger.Service) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// Create writes a header and its lines atomically. The Idempotency-Key
// header is used when the body names no key; a replay answers 200.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req appledger.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}
	orgID, actor := scope(c)

	resp, err := h.ledgerService.Create(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// List queries transactions with full header projection
func (h *TransactionHandler) List(c *gin.Context) {
	var req appledger.QueryTransactionsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	var ok bool
	if req.SourceEntityID, ok = h.optionalUUID(c, "source_entity_id"); !ok {
		return
	}
	if req.TargetEntityID, ok = h.optionalUUID(c, "target_entity_id"); !ok {
		return
	}
	orgID, _ := scope(c)

	result, err := h.ledgerService.Query(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	List(c, result)
}

// GetByID returns a transaction with its lines
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	orgID, _ := scope(c)

	resp, err := h.ledgerService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update changes status and metadata; lines are immutable
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req appledger.UpdateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.ledgerService.Update(c.Request.Context(), orgID, id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reverse books a compensating transaction
func (h *TransactionHandler) Reverse(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req appledger.ReverseTransactionRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.ledgerService.Reverse(c.Request.Context(), orgID, id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Crud dispatches the single-endpoint envelope
func (h *TransactionHandler) Crud(c *gin.Context) {
	var req appledger.CrudRequest
	if !h.BindJSON(c, &req) {
		return
	}
	orgID, actor := scope(c)

	resp, err := h.ledgerService.Dispatch(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
