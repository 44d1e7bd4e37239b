package entity

import (
	"sort"
	"strings"
	"sync"

	"github.com/heraerp/platform/internal/domain/dynamicdata"
	"github.com/heraerp/platform/internal/domain/shared"
)

// TypeSchema declares the dynamic fields an entity type is expected to carry
type TypeSchema struct {
	EntityType string
	Fields     map[string]dynamicdata.FieldType
}

// TypeRegistry maps entity_type tags to their expected dynamic-field schema.
// The registry is open: unknown types and undeclared fields are accepted.
type TypeRegistry struct {
	mu      sync.RWMutex
	schemas map[string]TypeSchema
}

// NewTypeRegistry creates an empty registry
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{schemas: make(map[string]TypeSchema)}
}

// DefaultTypeRegistry registers the platform's built-in entity types
func DefaultTypeRegistry() *TypeRegistry {
	r := NewTypeRegistry()
	r.Register(TypeSchema{EntityType: TypeUser, Fields: map[string]dynamicdata.FieldType{
		"email":        dynamicdata.FieldTypeText,
		"display_name": dynamicdata.FieldTypeText,
		"last_login":   dynamicdata.FieldTypeDate,
	}})
	r.Register(TypeSchema{EntityType: TypeOrganization})
	r.Register(TypeSchema{EntityType: TypeRole, Fields: map[string]dynamicdata.FieldType{
		"permissions": dynamicdata.FieldTypeJSON,
	}})
	r.Register(TypeSchema{EntityType: TypeCustomer, Fields: map[string]dynamicdata.FieldType{
		"email":          dynamicdata.FieldTypeText,
		"phone":          dynamicdata.FieldTypeText,
		"birthday":       dynamicdata.FieldTypeDate,
		"loyalty_points": dynamicdata.FieldTypeNumber,
		"vip":            dynamicdata.FieldTypeBoolean,
	}})
	r.Register(TypeSchema{EntityType: TypeStaff, Fields: map[string]dynamicdata.FieldType{
		"email":           dynamicdata.FieldTypeText,
		"phone":           dynamicdata.FieldTypeText,
		"hourly_rate":     dynamicdata.FieldTypeNumber,
		"commission_rate": dynamicdata.FieldTypeNumber,
		"hire_date":       dynamicdata.FieldTypeDate,
		"skills":          dynamicdata.FieldTypeJSON,
	}})
	r.Register(TypeSchema{EntityType: TypeProduct, Fields: map[string]dynamicdata.FieldType{
		"price":    dynamicdata.FieldTypeNumber,
		"cost":     dynamicdata.FieldTypeNumber,
		"sku":      dynamicdata.FieldTypeText,
		"in_stock": dynamicdata.FieldTypeBoolean,
	}})
	r.Register(TypeSchema{EntityType: TypeService, Fields: map[string]dynamicdata.FieldType{
		"price":            dynamicdata.FieldTypeNumber,
		"duration_minutes": dynamicdata.FieldTypeNumber,
	}})
	r.Register(TypeSchema{EntityType: TypeBranch, Fields: map[string]dynamicdata.FieldType{
		"address":       dynamicdata.FieldTypeText,
		"opening_hours": dynamicdata.FieldTypeJSON,
	}})
	return r
}

// Register adds or replaces the schema of an entity type
func (r *TypeRegistry) Register(schema TypeSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToUpper(strings.TrimSpace(schema.EntityType))
	fields := make(map[string]dynamicdata.FieldType, len(schema.Fields))
	for name, ft := range schema.Fields {
		fields[name] = ft
	}
	r.schemas[key] = TypeSchema{EntityType: key, Fields: fields}
}

// Lookup returns the schema for entityType
func (r *TypeRegistry) Lookup(entityType string) (TypeSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[strings.ToUpper(entityType)]
	return s, ok
}

// Types lists registered entity types in order
func (r *TypeRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CheckField validates a dynamic field against the declared schema
func (r *TypeRegistry) CheckField(entityType, fieldName string, fieldType dynamicdata.FieldType) error {
	schema, ok := r.Lookup(entityType)
	if !ok {
		return nil
	}
	expected, declared := schema.Fields[fieldName]
	if !declared || expected == fieldType {
		return nil
	}
	return shared.NewDomainErrorf(shared.CodeValidationFailure,
		"field %q of %s entities must be of type %s, got %s", fieldName, schema.EntityType, expected, fieldType).
		WithDetails(map[string]any{"field_name": fieldName, "expected_type": string(expected), "field_type": string(fieldType)})
}
