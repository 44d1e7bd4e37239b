// Package models contains GORM-specific persistence models that map to the six
// platform tables. These models are separate from domain types to keep the
// domain layer free from ORM concerns.
//
//   - organization.go: core_organizations
//   - entity.go: core_entities
//   - dynamic_data.go: core_dynamic_data (one value slot per field type)
//   - relationship.go: core_relationships
//   - transaction.go: universal_transactions and universal_transaction_lines
//
// Child models carry organization_id. EntityModel and TransactionModel declare
// it directly so the column can lead their composite unique indexes.
// Repositories convert with ToDomain / <Model>FromDomain.
package models
