package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/organization"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL bounds how long a create can be replayed
const DefaultIdempotencyTTL = 24 * time.Hour

// Config carries ledger policies
type Config struct {
	Reconciliation ledger.ReconciliationPolicy
	IdempotencyTTL time.Duration
}

// Service implements the transaction ledger procedures
type Service struct {
	txnRepo     ledger.Repository
	entityRepo  entity.Repository
	guard       organization.Guard
	idempotency shared.IdempotencyStore
	policy      ledger.ReconciliationPolicy
	ttl         time.Duration
	runtime     *procedure.Runtime
}

// NewService creates a new ledger Service. idempotency may be nil, in which
// case idempotency keys are ignored.
func NewService(
	txnRepo ledger.Repository,
	entityRepo entity.Repository,
	guard organization.Guard,
	idempotency shared.IdempotencyStore,
	runtime *procedure.Runtime,
	cfg Config,
) *Service {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &Service{
		txnRepo:     txnRepo,
		entityRepo:  entityRepo,
		guard:       guard,
		idempotency: idempotency,
		policy:      cfg.Reconciliation,
		ttl:         cfg.IdempotencyTTL,
		runtime:     runtime,
	}
}

// Create writes the header and its lines in one unit of work after the lines
// reconcile with the header total.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req CreateTransactionRequest, actor uuid.UUID) (*TransactionResponse, error) {
	txn, err := ledger.NewTransaction(orgID, req.header(), req.lines(), actor)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Reconcile(txn, req.AmountTolerance); err != nil {
		return nil, err
	}

	key := s.idempotencyKey(orgID, req.IdempotencyKey)
	if key != "" {
		replayed, err := s.reserve(ctx, orgID, key, txn.ID)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}

	call := procedure.Call{
		Name:           "ledger.create",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes: []any{
			telemetry.SpanAttrTransactionType, txn.TransactionType,
			telemetry.SpanAttrSmartCode, txn.SmartCode,
			telemetry.SpanAttrLineCount, len(txn.Lines),
		},
	}
	err = s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		for _, id := range txn.ReferencedEntityIDs() {
			if _, err := entity.Require(ctx, s.entityRepo, orgID, id); err != nil {
				return err
			}
		}
		if err := s.requireFreeCode(ctx, orgID, txn.TransactionCode); err != nil {
			return err
		}
		if err := s.txnRepo.Create(ctx, txn); err != nil {
			return err
		}
		rec.Record(txn)
		return nil
	})
	if err != nil {
		if key != "" {
			if rerr := s.idempotency.Release(ctx, key); rerr != nil {
				logger.L(ctx).Warn("failed to release idempotency key", zap.Error(rerr))
			}
		}
		return nil, err
	}

	logger.L(ctx).Info("transaction created",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("transaction_code", txn.TransactionCode),
		zap.Int("line_count", len(txn.Lines)))
	resp := ToTransactionResponse(txn)
	return &resp, nil
}

func (s *Service) idempotencyKey(orgID uuid.UUID, key string) string {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return ""
	}
	return fmt.Sprintf("txn:%s:%s", orgID, key)
}

// reserve binds key to txnID. When the key was used before it returns the
// transaction created under it.
func (s *Service) reserve(ctx context.Context, orgID uuid.UUID, key string, txnID uuid.UUID) (*TransactionResponse, error) {
	reserved, existing, err := s.idempotency.Reserve(ctx, key, txnID.String(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}

	inProgress := shared.NewDomainError(shared.CodeDuplicateKey, "a request with this idempotency key is still being processed").
		WithDetails(map[string]any{"idempotency_key": key})
	priorID, err := uuid.Parse(existing)
	if err != nil {
		return nil, inProgress
	}
	prior, err := s.Get(ctx, orgID, priorID)
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return nil, inProgress
		}
		return nil, err
	}
	prior.Replayed = true
	return prior, nil
}

func (s *Service) requireFreeCode(ctx context.Context, orgID uuid.UUID, code string) error {
	exists, err := s.txnRepo.ExistsByCode(ctx, orgID, code)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainErrorf(shared.CodeDuplicateKey, "transaction code %s already exists", code).
			WithDetails(map[string]any{"transaction_code": code})
	}
	return nil
}

// Get returns one transaction with its lines
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*TransactionResponse, error) {
	var resp TransactionResponse
	call := procedure.Call{
		Name:           "ledger.read",
		OrganizationID: procedure.Org(orgID),
		Attributes:     []any{telemetry.SpanAttrTransactionID, id},
	}
	err := s.runtime.Read(ctx, call, func(ctx context.Context) error {
		txn, err := s.txnRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		resp = ToTransactionResponse(txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Query lists transactions with the full header projection
func (s *Service) Query(ctx context.Context, orgID uuid.UUID, req QueryTransactionsRequest) (*shared.ListResult[TransactionResponse], error) {
	status := ledger.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.IsValid() {
		return nil, shared.NewValidationError("invalid transaction status: " + string(status))
	}
	filter := ledger.Filter{
		IDs:             req.IDs,
		TransactionType: strings.ToUpper(strings.TrimSpace(req.TransactionType)),
		TransactionCode: strings.TrimSpace(req.TransactionCode),
		SmartCode:       strings.TrimSpace(req.SmartCode),
		Status:          status,
		SourceEntityID:  req.SourceEntityID,
		TargetEntityID:  req.TargetEntityID,
		DateFrom:        req.DateFrom,
		DateTo:          req.DateTo,
		IncludeLines:    req.IncludeLines,
		Page:            shared.Page{Limit: req.Limit, Offset: req.Offset, SortBy: req.SortBy, SortOrder: req.SortOrder}.Normalize(),
	}

	var result shared.ListResult[TransactionResponse]
	err := s.runtime.Read(ctx, procedure.Call{Name: "ledger.query", OrganizationID: procedure.Org(orgID)}, func(ctx context.Context) error {
		txns, total, err := s.txnRepo.Find(ctx, orgID, filter)
		if err != nil {
			return err
		}
		result = shared.NewListResult(ToTransactionResponses(txns), total, filter.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update changes header status and metadata. Lines are immutable.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, req UpdateTransactionRequest, actor uuid.UUID) (*TransactionResponse, error) {
	if raw := strings.TrimSpace(string(req.Lines)); raw != "" && raw != "null" {
		return nil, shared.NewValidationError("transaction lines cannot be modified after creation")
	}
	update := ledger.HeaderUpdate{Metadata: req.Metadata}
	if req.Status != nil {
		status := ledger.Status(strings.ToLower(strings.TrimSpace(*req.Status)))
		update.Status = &status
	}

	var resp TransactionResponse
	call := procedure.Call{
		Name:           "ledger.update",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrTransactionID, id},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		txn, err := s.txnRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := txn.UpdateHeader(update, actor); err != nil {
			return err
		}
		if err := s.txnRepo.UpdateHeader(ctx, txn); err != nil {
			return err
		}
		rec.Record(txn)
		resp = ToTransactionResponse(txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("transaction updated",
		zap.String("transaction_id", id.String()),
		zap.String("status", resp.Status))
	return &resp, nil
}

// Reverse books a compensating transaction and marks the original reversed
func (s *Service) Reverse(ctx context.Context, orgID, id uuid.UUID, req ReverseTransactionRequest, actor uuid.UUID) (*ReverseTransactionResponse, error) {
	var out ReverseTransactionResponse
	call := procedure.Call{
		Name:           "ledger.reverse",
		OrganizationID: procedure.Org(orgID),
		ActorID:        procedure.Actor(actor),
		Attributes:     []any{telemetry.SpanAttrTransactionID, id},
	}
	err := s.runtime.Write(ctx, call, func(ctx context.Context, rec *procedure.Recorder) error {
		if err := s.guard.RequireActive(ctx, orgID); err != nil {
			return err
		}
		original, err := s.txnRepo.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		reversal, err := original.Reverse(strings.TrimSpace(req.Reason), actor)
		if err != nil {
			return err
		}
		if err := s.requireFreeCode(ctx, orgID, reversal.TransactionCode); err != nil {
			return err
		}
		if err := s.txnRepo.Create(ctx, reversal); err != nil {
			return err
		}
		if err := s.txnRepo.UpdateHeader(ctx, original); err != nil {
			return err
		}
		rec.Record(reversal, original)
		out.Original = ToTransactionResponse(original)
		out.Reversal = ToTransactionResponse(reversal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("transaction reversed",
		zap.String("transaction_id", id.String()),
		zap.String("reversal_id", out.Reversal.ID.String()))
	return &out, nil
}
