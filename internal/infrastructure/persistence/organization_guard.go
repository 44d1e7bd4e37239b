package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnscopedMutation is raised when an UPDATE or DELETE on an
// organization-scoped table carries no organization_id condition
var ErrUnscopedMutation = errors.New("persistence: mutation of organization-scoped table without organization_id condition")

const (
	organizationColumn = "organization_id"
	crossOrgSetting    = "hera:cross_org"
)

// organizationScopedTables lists the tables whose rows belong to one organization
var organizationScopedTables = map[string]bool{
	"core_entities":               true,
	"core_dynamic_data":           true,
	"core_relationships":          true,
	"universal_transactions":      true,
	"universal_transaction_lines": true,
}

// RegisterOrganizationGuard installs update and delete callbacks that refuse
// statements on organization-scoped tables unless they filter by
// organization_id. Reads are left alone: identity resolution and reference
// counting legitimately span organizations.
func RegisterOrganizationGuard(db *gorm.DB) error {
	if err := db.Callback().Update().Before("gorm:update").Register("hera:organization_guard_update", guardMutation); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("hera:organization_guard_delete", guardMutation)
}

// CrossOrganization marks a statement as deliberately spanning organizations
func CrossOrganization(db *gorm.DB) *gorm.DB {
	return db.Set(crossOrgSetting, true)
}

func guardMutation(db *gorm.DB) {
	if db.Error != nil || db.Statement.Unscoped || !organizationScopedTables[db.Statement.Table] {
		return
	}
	if v, ok := db.Get(crossOrgSetting); ok {
		if allowed, _ := v.(bool); allowed {
			return
		}
	}
	if hasOrganizationCondition(db.Statement) {
		return
	}
	_ = db.AddError(ErrUnscopedMutation)
}

func hasOrganizationCondition(stmt *gorm.Statement) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if exprMentionsOrganization(expr) {
			return true
		}
	}
	return false
}

func exprMentionsOrganization(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Expr:
		return strings.Contains(e.SQL, organizationColumn)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, organizationColumn)
	case clause.Eq:
		return columnIsOrganization(e.Column)
	case clause.IN:
		return columnIsOrganization(e.Column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprMentionsOrganization(cond) {
				return true
			}
		}
	}
	return false
}

func columnIsOrganization(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return c.Name == organizationColumn
	case string:
		return c == organizationColumn
	}
	return false
}
