package persistence

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationScope filters a query to one organization. Every child-table
// read and write goes through it.
func OrganizationScope(orgID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ?", orgID)
	}
}

// PageScope applies a normalized limit/offset window
func PageScope(limit, offset int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}

// SearchScope applies a case-insensitive substring match on column
func SearchScope(column, term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		return db.Where("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", "%"+escapeLike(term)+"%")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
