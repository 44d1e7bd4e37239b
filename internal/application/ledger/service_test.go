package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/apptest"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	saleSmartCode     = "HERA.SALON.POS.TXN.SALE.v1"
	serviceLine       = "HERA.SALON.POS.LINE.SERVICE.v1"
	auditSmartCode    = "HERA.PLATFORM.AUDIT.TXN.LOGIN.v1"
	customerSmartCode = "HERA.SALON.CUSTOMER.ENTITY.PERSON.v1"
)

type fixture struct {
	*apptest.Harness
	svc      *Service
	orgID    uuid.UUID
	customer uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := apptest.New(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(h.TxnRepo, h.EntityRepo, h.Organizations, store, h.Runtime, Config{
		Reconciliation: ledger.DefaultReconciliationPolicy(),
	})
	f := &fixture{Harness: h, svc: svc, orgID: h.CreateOrg(t, "Hair Talkz", "HAIRTALKZ")}
	f.customer = f.seedEntity(t, f.orgID, "Jane")
	return f
}

func (f *fixture) seedEntity(t *testing.T, orgID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	e, err := entity.NewEntity(orgID, uuid.Nil, entity.Attributes{
		EntityType: entity.TypeCustomer,
		EntityName: name,
		SmartCode:  customerSmartCode,
	}, apptest.Actor)
	require.NoError(t, err)
	require.NoError(t, f.EntityRepo.Save(context.Background(), e))
	return e.ID
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (f *fixture) saleRequest(total string, amounts ...string) CreateTransactionRequest {
	req := CreateTransactionRequest{
		Header: HeaderRequest{
			TransactionType: "sale",
			SourceEntityID:  &f.customer,
			TotalAmount:     dec(total),
			SmartCode:       saleSmartCode,
		},
	}
	for _, a := range amounts {
		req.Lines = append(req.Lines, LineRequest{
			LineType:   "SERVICE",
			Quantity:   decPtr("1"),
			UnitAmount: decPtr(a),
			SmartCode:  serviceLine,
		})
	}
	return req
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("lines within tolerance are written atomically", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.svc.Create(ctx, f.orgID, f.saleRequest("305.25", "135", "170"), apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, "SALE", resp.TransactionType)
		assert.Equal(t, string(ledger.StatusCompleted), resp.Status)
		assert.NotEmpty(t, resp.TransactionCode)
		require.Len(t, resp.Lines, 2)
		assert.Equal(t, 1, resp.Lines[0].LineNumber)
		assert.Equal(t, 2, resp.Lines[1].LineNumber)
		assert.True(t, dec("170").Equal(resp.Lines[1].LineAmount))

		stored, err := f.svc.Get(ctx, f.orgID, resp.ID)
		require.NoError(t, err)
		assert.True(t, dec("305.25").Equal(stored.TotalAmount))
		assert.Len(t, stored.Lines, 2)
		assert.Equal(t, []string{ledger.EventTypeCreated}, f.Events.Types())
	})

	t.Run("mismatch beyond tolerance writes nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, f.orgID, f.saleRequest("300", "135", "170.25"), apptest.Actor)
		require.Error(t, err)
		assert.True(t, shared.HasCode(err, shared.CodeAmountMismatch))

		list, err := f.svc.Query(ctx, f.orgID, QueryTransactionsRequest{})
		require.NoError(t, err)
		assert.Zero(t, list.Total)
		assert.Empty(t, f.Events.Types())
	})

	t.Run("declared tolerance widens the match", func(t *testing.T) {
		f := newFixture(t)
		req := f.saleRequest("300", "135", "170.25")
		req.AmountTolerance = decPtr("6")

		_, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.NoError(t, err)
	})

	t.Run("lineless audit transaction", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.svc.Create(ctx, f.orgID, CreateTransactionRequest{
			Header: HeaderRequest{
				TransactionType: "AUDIT",
				TotalAmount:     dec("0"),
				SmartCode:       auditSmartCode,
				Metadata:        map[string]any{"ip": "10.0.0.1"},
			},
		}, apptest.Actor)
		require.NoError(t, err)
		assert.Empty(t, resp.Lines)
		assert.Equal(t, "10.0.0.1", resp.Metadata["ip"])
	})

	t.Run("sale without lines must still reconcile", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, f.orgID, f.saleRequest("50"), apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeAmountMismatch))
	})

	t.Run("duplicate transaction code", func(t *testing.T) {
		f := newFixture(t)
		req := f.saleRequest("10", "10")
		req.Header.TransactionCode = "INV-1"

		_, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeDuplicateKey))
	})

	t.Run("entity of another organization is rejected", func(t *testing.T) {
		f := newFixture(t)
		otherOrg := f.CreateOrg(t, "Other", "OTHER")
		foreign := f.seedEntity(t, otherOrg, "Mallory")

		req := f.saleRequest("10", "10")
		req.Lines[0].LineEntityID = &foreign
		_, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeCrossOrgViolation))
	})

	t.Run("unknown entity is not found", func(t *testing.T) {
		f := newFixture(t)
		missing := uuid.New()

		req := f.saleRequest("10", "10")
		req.Header.TargetEntityID = &missing
		_, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("inactive organization", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.Organizations.Deactivate(ctx, f.orgID, apptest.Actor)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeOrganizationInactive))
	})

	t.Run("idempotency key replays the first result", func(t *testing.T) {
		f := newFixture(t)
		req := f.saleRequest("10", "10")
		req.IdempotencyKey = "checkout-42"

		first, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		second, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.ID, second.ID)

		list, err := f.svc.Query(ctx, f.orgID, QueryTransactionsRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), list.Total)
	})

	t.Run("failed create frees its idempotency key", func(t *testing.T) {
		f := newFixture(t)
		missing := uuid.New()
		req := f.saleRequest("10", "10")
		req.IdempotencyKey = "retry-me"
		req.Header.TargetEntityID = &missing

		_, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.Error(t, err)

		req.Header.TargetEntityID = nil
		resp, err := f.svc.Create(ctx, f.orgID, req, apptest.Actor)
		require.NoError(t, err)
		assert.False(t, resp.Replayed)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("status and metadata change", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		require.NoError(t, err)

		status := "posted"
		resp, err := f.svc.Update(ctx, f.orgID, created.ID, UpdateTransactionRequest{
			Status:   &status,
			Metadata: map[string]any{"note": "paid"},
		}, apptest.Actor)
		require.NoError(t, err)
		assert.Equal(t, "posted", resp.Status)
		assert.Equal(t, "paid", resp.Metadata["note"])
		assert.Equal(t, 2, resp.Version)
	})

	t.Run("lines cannot be modified", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, f.orgID, created.ID, UpdateTransactionRequest{
			Lines: json.RawMessage(`[{"line_amount": 5}]`),
		}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
	})

	t.Run("terminal status is frozen", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		require.NoError(t, err)

		voided := "voided"
		_, err = f.svc.Update(ctx, f.orgID, created.ID, UpdateTransactionRequest{Status: &voided}, apptest.Actor)
		require.NoError(t, err)

		posted := "posted"
		_, err = f.svc.Update(ctx, f.orgID, created.ID, UpdateTransactionRequest{Status: &posted}, apptest.Actor)
		assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
	})

	t.Run("other organization cannot see it", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		require.NoError(t, err)
		otherOrg := f.CreateOrg(t, "Other", "OTHER")

		_, err = f.svc.Get(ctx, otherOrg, created.ID)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})
}

func TestService_Reverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.orgID, f.saleRequest("305.25", "135", "170.25"), apptest.Actor)
	require.NoError(t, err)
	f.Events.Reset()

	out, err := f.svc.Reverse(ctx, f.orgID, created.ID, ReverseTransactionRequest{Reason: "refund"}, apptest.Actor)
	require.NoError(t, err)
	assert.Equal(t, string(ledger.StatusReversed), out.Original.Status)
	assert.Equal(t, created.TransactionCode+"-REV", out.Reversal.TransactionCode)
	assert.True(t, dec("-305.25").Equal(out.Reversal.TotalAmount))
	require.Len(t, out.Reversal.Lines, 2)
	assert.True(t, dec("-135").Equal(out.Reversal.Lines[0].LineAmount))
	assert.Equal(t, created.ID.String(), out.Reversal.Metadata[ledger.MetadataReversesKey])
	assert.ElementsMatch(t, []string{ledger.EventTypeCreated, ledger.EventTypeReversed}, f.Events.Types())

	_, err = f.svc.Reverse(ctx, f.orgID, created.ID, ReverseTransactionRequest{}, apptest.Actor)
	assert.True(t, shared.HasCode(err, shared.CodeInvalidState))

	_, err = f.svc.Reverse(ctx, f.orgID, out.Reversal.ID, ReverseTransactionRequest{}, apptest.Actor)
	assert.True(t, shared.HasCode(err, shared.CodeInvalidState))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, f.orgID, f.saleRequest("10", "10"), apptest.Actor)
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.orgID, CreateTransactionRequest{
		Header: HeaderRequest{TransactionType: "AUDIT", SmartCode: auditSmartCode},
	}, apptest.Actor)
	require.NoError(t, err)

	sales, err := f.svc.Query(ctx, f.orgID, QueryTransactionsRequest{TransactionType: "sale", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), sales.Total)
	assert.Len(t, sales.Items, 2)
	assert.Empty(t, sales.Items[0].Lines)

	withLines, err := f.svc.Query(ctx, f.orgID, QueryTransactionsRequest{SourceEntityID: &f.customer, IncludeLines: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), withLines.Total)
	assert.Len(t, withLines.Items[0].Lines, 1)

	_, err = f.svc.Query(ctx, f.orgID, QueryTransactionsRequest{Status: "bogus"})
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
}

func TestService_Dispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	payload, err := json.Marshal(f.saleRequest("10", "10"))
	require.NoError(t, err)

	created, err := f.svc.Dispatch(ctx, f.orgID, CrudRequest{Action: "create", Payload: payload}, apptest.Actor)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, created.Action)
	txn, ok := created.Data.(*TransactionResponse)
	require.True(t, ok)

	read, err := f.svc.Dispatch(ctx, f.orgID, CrudRequest{Action: ActionRead, TransactionID: &txn.ID}, apptest.Actor)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, read.Data.(*TransactionResponse).ID)

	query, err := f.svc.Dispatch(ctx, f.orgID, CrudRequest{Action: ActionQuery}, apptest.Actor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), query.Data.(*shared.ListResult[TransactionResponse]).Total)

	_, err = f.svc.Dispatch(ctx, f.orgID, CrudRequest{Action: ActionUpdate}, apptest.Actor)
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))

	_, err = f.svc.Dispatch(ctx, f.orgID, CrudRequest{Action: "DELETE", TransactionID: &txn.ID}, apptest.Actor)
	assert.True(t, shared.HasCode(err, shared.CodeValidationFailure))
}
