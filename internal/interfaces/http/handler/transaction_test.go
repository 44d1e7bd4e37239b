package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txnView struct {
	ID              uuid.UUID       `json:"id"`
	TransactionCode string          `json:"transaction_code"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"transaction_status"`
	Replayed        bool            `json:"replayed"`
	Lines           []struct {
		LineNumber int             `json:"line_number"`
		LineAmount decimal.Decimal `json:"line_amount"`
	} `json:"lines"`
}

func sale(customer uuid.UUID, total string, amounts ...string) gin.H {
	lines := make([]gin.H, 0, len(amounts))
	for _, a := range amounts {
		lines = append(lines, gin.H{
			"line_type":   "SERVICE",
			"quantity":    "1",
			"unit_amount": a,
			"smart_code":  serviceLine,
		})
	}
	return gin.H{
		"header": gin.H{
			"transaction_type": "sale",
			"source_entity_id": customer,
			"total_amount":     total,
			"smart_code":       saleSmartCode,
		},
		"lines": lines,
	}
}

func (s *testServer) createSale(t *testing.T, body gin.H, headers ...string) txnView {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, s.orgPath("/transactions"), body, headers...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out txnView
	decode(t, resp.Data, &out)
	return out
}

func TestTransactionHandler_Create(t *testing.T) {
	s := newTestServer(t)
	customer := s.createCustomer(t, "Jane", "CUST-1")

	t.Run("lines are numbered and reconciled", func(t *testing.T) {
		txn := s.createSale(t, sale(customer, "305.25", "135", "170.25"))
		require.Len(t, txn.Lines, 2)
		assert.Equal(t, 1, txn.Lines[0].LineNumber)
		assert.True(t, decimal.RequireFromString("170.25").Equal(txn.Lines[1].LineAmount))
	})

	t.Run("mismatch is rejected", func(t *testing.T) {
		w, resp := s.do(t, http.MethodPost, s.orgPath("/transactions"), sale(customer, "100", "10"))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, shared.CodeAmountMismatch, resp.Error.Code)
	})

	t.Run("line smart code is validated at binding", func(t *testing.T) {
		body := sale(customer, "10", "10")
		body["lines"].([]gin.H)[0]["smart_code"] = "bad"
		w, resp := s.do(t, http.MethodPost, s.orgPath("/transactions"), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, shared.CodeInvalidSmartCode, resp.Error.Code)
	})

	t.Run("idempotency key header replays", func(t *testing.T) {
		first := s.createSale(t, sale(customer, "10", "10"), IdempotencyKeyHeader, "checkout-42")

		w, resp := s.do(t, http.MethodPost, s.orgPath("/transactions"), sale(customer, "10", "10"), IdempotencyKeyHeader, "checkout-42")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var second txnView
		decode(t, resp.Data, &second)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Replayed)
	})
}

func TestTransactionHandler_ReadUpdateReverse(t *testing.T) {
	s := newTestServer(t)
	customer := s.createCustomer(t, "Jane", "CUST-1")
	txn := s.createSale(t, sale(customer, "20", "5", "15"))
	path := s.orgPath("/transactions/" + txn.ID.String())

	w, resp := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got txnView
	decode(t, resp.Data, &got)
	assert.Len(t, got.Lines, 2)

	w, resp = s.do(t, http.MethodGet, s.orgPath("/transactions?transaction_type=sale&source_entity_id="+customer.String()), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), resp.Meta.Total)

	w, _ = s.do(t, http.MethodGet, s.orgPath("/transactions?source_entity_id=nope"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = s.do(t, http.MethodPatch, path, gin.H{"lines": []gin.H{{"line_amount": 5}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidationFailure, resp.Error.Code)

	w, resp = s.do(t, http.MethodPatch, path, gin.H{"transaction_status": "posted", "metadata": gin.H{"note": "paid"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, resp.Data, &got)
	assert.Equal(t, "posted", got.Status)

	w, resp = s.do(t, http.MethodPost, path+"/reverse", gin.H{"reason": "refund"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rev struct {
		Original txnView `json:"original"`
		Reversal txnView `json:"reversal"`
	}
	decode(t, resp.Data, &rev)
	assert.Equal(t, txn.TransactionCode+"-REV", rev.Reversal.TransactionCode)
	assert.True(t, decimal.RequireFromString("-20").Equal(rev.Reversal.TotalAmount))

	w, resp = s.do(t, http.MethodPost, path+"/reverse", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, shared.CodeInvalidState, resp.Error.Code)

	w, resp = s.do(t, http.MethodGet, s.orgPath("/transactions/"+uuid.NewString()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, shared.CodeNotFound, resp.Error.Code)
}

func TestTransactionHandler_Crud(t *testing.T) {
	s := newTestServer(t)
	customer := s.createCustomer(t, "Jane", "CUST-1")

	w, resp := s.do(t, http.MethodPost, s.orgPath("/transactions/crud"), gin.H{
		"action":  "create",
		"payload": sale(customer, "10", "10"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Action string  `json:"action"`
		Data   txnView `json:"data"`
	}
	decode(t, resp.Data, &created)
	assert.Equal(t, "CREATE", created.Action)

	w, resp = s.do(t, http.MethodPost, s.orgPath("/transactions/crud"), gin.H{
		"action":         "READ",
		"transaction_id": created.Data.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(t, http.MethodPost, s.orgPath("/transactions/crud"), gin.H{"action": "DELETE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidationFailure, resp.Error.Code)
}
