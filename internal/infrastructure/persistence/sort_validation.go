package persistence

import (
	"strings"

	"github.com/heraerp/platform/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// SortScope orders by a whitelisted column, then by id so pages are stable
func SortScope(page shared.Page, allowedFields map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(page.SortBy, allowedFields, defaultField)
		db = db.Order(field + " " + ValidateSortOrder(page.SortOrder))
		if field != "id" {
			db = db.Order("id ASC")
		}
		return db
	}
}

// EntitySortFields contains allowed sort fields for core_entities
var EntitySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"entity_type": true,
	"entity_name": true,
	"entity_code": true,
	"smart_code":  true,
	"status":      true,
}

// TransactionSortFields contains allowed sort fields for universal_transactions
var TransactionSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"transaction_date":   true,
	"transaction_type":   true,
	"transaction_code":   true,
	"transaction_status": true,
	"total_amount":       true,
}
