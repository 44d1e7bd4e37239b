package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionModel is the persistence model for a transaction header
type TransactionModel struct {
	AggregateModel
	OrganizationID    uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_universal_transactions_org_code,priority:1"`
	TransactionType   string                 `gorm:"type:varchar(100);not null;index"`
	TransactionCode   string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_universal_transactions_org_code,priority:2"`
	TransactionDate   time.Time              `gorm:"not null;index"`
	SourceEntityID    *uuid.UUID             `gorm:"type:uuid;index"`
	TargetEntityID    *uuid.UUID             `gorm:"type:uuid;index"`
	TotalAmount       decimal.Decimal        `gorm:"type:numeric(20,4);not null;default:0"`
	TransactionStatus ledger.Status          `gorm:"type:varchar(20);not null;default:'completed'"`
	SmartCode         string                 `gorm:"type:varchar(200);not null"`
	Metadata          datatypes.JSONMap      `gorm:"type:jsonb"`
	Lines             []TransactionLineModel `gorm:"foreignKey:TransactionID"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "universal_transactions"
}

// TransactionLineModel is the persistence model for a transaction line
type TransactionLineModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID         `gorm:"type:uuid;not null;index"`
	TransactionID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_universal_transaction_lines_number,priority:1"`
	LineNumber     int               `gorm:"not null;uniqueIndex:idx_universal_transaction_lines_number,priority:2"`
	LineType       string            `gorm:"type:varchar(50);not null"`
	LineEntityID   *uuid.UUID        `gorm:"type:uuid;index"`
	Quantity       decimal.Decimal   `gorm:"type:numeric(20,4);not null;default:1"`
	UnitAmount     decimal.Decimal   `gorm:"type:numeric(20,4);not null;default:0"`
	LineAmount     decimal.Decimal   `gorm:"type:numeric(20,4);not null;default:0"`
	LineData       datatypes.JSONMap `gorm:"type:jsonb"`
	SmartCode      string            `gorm:"type:varchar(200);not null"`
	CreatedAt      time.Time         `gorm:"not null"`
	UpdatedAt      time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionLineModel) TableName() string {
	return "universal_transaction_lines"
}

// ToDomain converts the persistence model to a domain Transaction. Lines are
// included only when they were loaded.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	t := &ledger.Transaction{
		OrganizationAggregateRoot: restoreRoot(m.AggregateModel, m.OrganizationID),
		TransactionType:           m.TransactionType,
		TransactionCode:           m.TransactionCode,
		TransactionDate:           m.TransactionDate,
		SourceEntityID:            m.SourceEntityID,
		TargetEntityID:            m.TargetEntityID,
		TotalAmount:               m.TotalAmount,
		Status:                    m.TransactionStatus,
		SmartCode:                 m.SmartCode,
		Metadata:                  MapFromJSON(m.Metadata),
		Lines:                     make([]ledger.Line, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		t.Lines = append(t.Lines, m.Lines[i].ToDomain())
	}
	return t
}

// ToDomain converts the persistence model to a domain Line
func (m *TransactionLineModel) ToDomain() ledger.Line {
	return ledger.Line{
		ID:           m.ID,
		LineNumber:   m.LineNumber,
		LineType:     m.LineType,
		LineEntityID: m.LineEntityID,
		Quantity:     m.Quantity,
		UnitAmount:   m.UnitAmount,
		LineAmount:   m.LineAmount,
		LineData:     MapFromJSON(m.LineData),
		SmartCode:    m.SmartCode,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// TransactionModelFromDomain creates header and line models. Every line is
// stamped with the header's organization.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{
		TransactionType:   t.TransactionType,
		TransactionCode:   t.TransactionCode,
		TransactionDate:   t.TransactionDate,
		SourceEntityID:    t.SourceEntityID,
		TargetEntityID:    t.TargetEntityID,
		TotalAmount:       t.TotalAmount,
		TransactionStatus: t.Status,
		SmartCode:         t.SmartCode,
		Metadata:          JSONMapFrom(t.Metadata),
		Lines:             make([]TransactionLineModel, 0, len(t.Lines)),
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.OrganizationID = t.OrganizationID()
	for _, l := range t.Lines {
		m.Lines = append(m.Lines, TransactionLineModel{
			ID:             l.ID,
			OrganizationID: m.OrganizationID,
			TransactionID:  m.ID,
			LineNumber:     l.LineNumber,
			LineType:       l.LineType,
			LineEntityID:   l.LineEntityID,
			Quantity:       l.Quantity,
			UnitAmount:     l.UnitAmount,
			LineAmount:     l.LineAmount,
			LineData:       JSONMapFrom(l.LineData),
			SmartCode:      l.SmartCode,
			CreatedAt:      l.CreatedAt,
			UpdatedAt:      l.UpdatedAt,
		})
	}
	return m
}
