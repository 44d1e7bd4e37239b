package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransactionRepository implements ledger.Repository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create writes the header and its lines. Both are inserted in one
// transaction so readers never see a header without lines.
func (r *GormTransactionRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	lines := model.Lines

	write := func(db *gorm.DB) error {
		if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err, "transaction")
		}
		if len(lines) == 0 {
			return nil
		}
		if err := db.Create(&lines).Error; err != nil {
			return translateError(err, "transaction line")
		}
		return nil
	}

	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return write(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(write)
}

// UpdateHeader persists status and metadata. Lines are never touched.
func (r *GormTransactionRepository) UpdateHeader(ctx context.Context, t *ledger.Transaction) error {
	result := conn(ctx, r.db).Model(&models.TransactionModel{}).
		Scopes(OrganizationScope(t.OrganizationID())).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"transaction_status": t.Status,
			"metadata":           models.JSONMapFrom(t.Metadata),
			"updated_by":         t.UpdatedBy,
			"updated_at":         t.UpdatedAt,
			"version":            t.Version,
		})
	if result.Error != nil {
		return translateError(result.Error, "transaction")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("transaction", t.ID)
	}
	return nil
}

// FindByID returns the header with its lines ordered by line number
func (r *GormTransactionRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := conn(ctx, r.db).Scopes(OrganizationScope(orgID)).
		Preload("Lines", orderLines).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("transaction", id)
		}
		return nil, translateError(err, "transaction")
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if a transaction code is taken in orgID
func (r *GormTransactionRepository) ExistsByCode(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.TransactionModel{}).
		Scopes(OrganizationScope(orgID)).
		Where("transaction_code = ?", code).
		Count(&count).Error; err != nil {
		return false, translateError(err, "transaction")
	}
	return count > 0, nil
}

// Find returns a page of full headers, newest first, optionally with lines
func (r *GormTransactionRepository) Find(ctx context.Context, orgID uuid.UUID, filter ledger.Filter) ([]ledger.Transaction, int64, error) {
	page := filter.Page.Normalize()
	apply := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(OrganizationScope(orgID))
		if len(filter.IDs) > 0 {
			db = db.Where("id IN ?", filter.IDs)
		}
		if filter.TransactionType != "" {
			db = db.Where("transaction_type = ?", strings.ToUpper(strings.TrimSpace(filter.TransactionType)))
		}
		if filter.TransactionCode != "" {
			db = db.Where("transaction_code = ?", filter.TransactionCode)
		}
		if filter.SmartCode != "" {
			db = db.Where("smart_code = ?", filter.SmartCode)
		}
		if filter.Status != "" {
			db = db.Where("transaction_status = ?", filter.Status)
		}
		if filter.SourceEntityID != nil {
			db = db.Where("source_entity_id = ?", *filter.SourceEntityID)
		}
		if filter.TargetEntityID != nil {
			db = db.Where("target_entity_id = ?", *filter.TargetEntityID)
		}
		if filter.DateFrom != nil {
			db = db.Where("transaction_date >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			db = db.Where("transaction_date <= ?", *filter.DateTo)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.TransactionModel{}).Scopes(apply).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "transaction")
	}

	query := conn(ctx, r.db).Scopes(apply, PageScope(page.Limit, page.Offset),
		SortScope(page, TransactionSortFields, "transaction_date"))
	if filter.IncludeLines {
		query = query.Preload("Lines", orderLines)
	}
	var rows []models.TransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, "transaction")
	}

	out := make([]ledger.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_number ASC")
}
