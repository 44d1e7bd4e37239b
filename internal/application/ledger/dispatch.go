package ledger

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Actions accepted by Dispatch
const (
	ActionCreate  = "CREATE"
	ActionRead    = "READ"
	ActionUpdate  = "UPDATE"
	ActionQuery   = "QUERY"
	ActionReverse = "REVERSE"
)

// CrudRequest is the single-endpoint transaction envelope
type CrudRequest struct {
	Action        string          `json:"action" binding:"required"`
	TransactionID *uuid.UUID      `json:"transaction_id"`
	Payload       json.RawMessage `json:"payload"`
}

// CrudResult wraps whatever the dispatched action returned
type CrudResult struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// Dispatch routes an envelope to the matching ledger operation
func (s *Service) Dispatch(ctx context.Context, orgID uuid.UUID, req CrudRequest, actor uuid.UUID) (*CrudResult, error) {
	action := strings.ToUpper(strings.TrimSpace(req.Action))
	result := &CrudResult{Action: action}

	switch action {
	case ActionCreate:
		var in CreateTransactionRequest
		if err := decodePayload(req.Payload, &in); err != nil {
			return nil, err
		}
		out, err := s.Create(ctx, orgID, in, actor)
		if err != nil {
			return nil, err
		}
		result.Data = out
	case ActionRead:
		id, err := requireTransactionID(req.TransactionID)
		if err != nil {
			return nil, err
		}
		out, err := s.Get(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		result.Data = out
	case ActionUpdate:
		id, err := requireTransactionID(req.TransactionID)
		if err != nil {
			return nil, err
		}
		var in UpdateTransactionRequest
		if err := decodePayload(req.Payload, &in); err != nil {
			return nil, err
		}
		out, err := s.Update(ctx, orgID, id, in, actor)
		if err != nil {
			return nil, err
		}
		result.Data = out
	case ActionQuery:
		var in QueryTransactionsRequest
		if len(req.Payload) > 0 {
			if err := decodePayload(req.Payload, &in); err != nil {
				return nil, err
			}
		}
		out, err := s.Query(ctx, orgID, in)
		if err != nil {
			return nil, err
		}
		result.Data = out
	case ActionReverse:
		id, err := requireTransactionID(req.TransactionID)
		if err != nil {
			return nil, err
		}
		var in ReverseTransactionRequest
		if len(req.Payload) > 0 {
			if err := decodePayload(req.Payload, &in); err != nil {
				return nil, err
			}
		}
		out, err := s.Reverse(ctx, orgID, id, in, actor)
		if err != nil {
			return nil, err
		}
		result.Data = out
	default:
		return nil, shared.NewValidationError("unknown action: " + req.Action).
			WithDetails(map[string]any{"allowed": []string{ActionCreate, ActionRead, ActionUpdate, ActionQuery, ActionReverse}})
	}
	return result, nil
}

func requireTransactionID(id *uuid.UUID) (uuid.UUID, error) {
	if id == nil || *id == uuid.Nil {
		return uuid.Nil, shared.NewValidationError("transaction_id is required for this action")
	}
	return *id, nil
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return shared.NewValidationError("payload is required for this action")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return shared.NewValidationError("invalid payload: " + err.Error())
	}
	return nil
}
