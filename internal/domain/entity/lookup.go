package entity

import (
	"context"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Require loads id from orgID. An id owned by another organization yields
// CROSS_ORG_VIOLATION; an unknown id yields NOT_FOUND.
func Require(ctx context.Context, repo Repository, orgID, id uuid.UUID) (*Entity, error) {
	e, err := repo.FindByID(ctx, orgID, id)
	if err == nil {
		return e, nil
	}
	if !shared.HasCode(err, shared.CodeNotFound) {
		return nil, err
	}
	owner, found, lerr := repo.LocateOrganization(ctx, id)
	if lerr != nil {
		return nil, lerr
	}
	if found && owner != orgID {
		return nil, NewCrossOrgError(id)
	}
	return nil, err
}

// RequireLive is Require that also rejects deleted entities
func RequireLive(ctx context.Context, repo Repository, orgID, id uuid.UUID) (*Entity, error) {
	e, err := Require(ctx, repo, orgID, id)
	if err != nil {
		return nil, err
	}
	if e.IsDeleted() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState, "entity %s is deleted", id).
			WithDetails(map[string]any{"entity_id": id.String(), "status": string(e.Status)})
	}
	return e, nil
}

// NewCrossOrgError reports an id that belongs to another organization
func NewCrossOrgError(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeCrossOrgViolation, "entity %s belongs to another organization", id).
		WithDetails(map[string]any{"entity_id": id.String()})
}

// NewDuplicateKeyError reports a natural key held by another entity
func NewDuplicateKeyError(entityType, code string, holder uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeDuplicateKey,
		"an active %s entity with code %q already exists", entityType, code).
		WithDetails(map[string]any{
			"entity_type":        entityType,
			"entity_code":        code,
			"existing_entity_id": holder.String(),
		})
}

// CheckNaturalKey fails when another non-deleted entity holds e's (type, code)
func CheckNaturalKey(ctx context.Context, repo Repository, e *Entity) error {
	if e.EntityCode == nil || e.IsDeleted() {
		return nil
	}
	holder, err := repo.FindByNaturalKey(ctx, e.OrganizationID(), e.EntityType, *e.EntityCode)
	if err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return nil
		}
		return err
	}
	if holder.ID != e.ID {
		return NewDuplicateKeyError(e.EntityType, *e.EntityCode, holder.ID)
	}
	return nil
}
