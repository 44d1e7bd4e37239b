package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testEntitySmartCode = "HERA.SALON.CUSTOMER.ENTITY.v1"
	testTxnSmartCode    = "HERA.SALON.POS.TXN.SALE.v1"
	testLineSmartCode   = "HERA.SALON.POS.LINE.ITEM.v1"
	testRelSmartCode    = "HERA.UNIVERSAL.REL.MEMBER_OF.v1"
	testFieldSmartCode  = "HERA.SALON.CUSTOMER.FIELD.EMAIL.v1"
)

var testActor = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestEntity(t *testing.T, orgID uuid.UUID, entityType, name string, code *string) *entity.Entity {
	t.Helper()
	e, err := entity.NewEntity(orgID, uuid.Nil, entity.Attributes{
		EntityType: entityType,
		EntityName: name,
		EntityCode: code,
		SmartCode:  testEntitySmartCode,
	}, testActor)
	require.NoError(t, err)
	return e
}

func newTestTransaction(t *testing.T, orgID uuid.UUID, total string, lines ...ledger.LineInput) *ledger.Transaction {
	t.Helper()
	txn, err := ledger.NewTransaction(orgID, ledger.HeaderInput{
		TransactionType: "SALE",
		TotalAmount:     decimal.RequireFromString(total),
		SmartCode:       testTxnSmartCode,
	}, lines, testActor)
	require.NoError(t, err)
	return txn
}
