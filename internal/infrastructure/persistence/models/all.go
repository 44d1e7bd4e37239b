package models

// All returns every platform model in dependency order, for AutoMigrate in
// tests and tooling. Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&OrganizationModel{},
		&EntityModel{},
		&DynamicFieldModel{},
		&RelationshipModel{},
		&TransactionModel{},
		&TransactionLineModel{},
	}
}
