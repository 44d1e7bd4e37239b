package relationship

import (
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
)

// Endpoint is the part of an entity the endpoint rule needs
type Endpoint struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	EntityType     string
}

// IdentityEdgeRule is the single sanctioned exception to same-organization
// edges: a USER entity living in the platform organization may be linked
// into a tenant organization through MEMBER_OF or HAS_ROLE edges.
type IdentityEdgeRule struct {
	PlatformOrganizationID uuid.UUID
	UserEntityType         string
}

// Permits reports whether endpoint may take part in an edge of relType
// stored in relOrg.
func (r IdentityEdgeRule) Permits(relOrg uuid.UUID, relType string, endpoint Endpoint) bool {
	if endpoint.OrganizationID == relOrg {
		return true
	}
	return IsIdentityType(relType) &&
		endpoint.OrganizationID == r.PlatformOrganizationID &&
		endpoint.EntityType == r.UserEntityType
}

// Check validates both endpoints of a new edge
func (r IdentityEdgeRule) Check(relOrg uuid.UUID, relType string, from, to Endpoint) error {
	for _, ep := range []Endpoint{from, to} {
		if !r.Permits(relOrg, relType, ep) {
			return shared.NewDomainErrorf(shared.CodeCrossOrgViolation,
				"entity %s belongs to another organization", ep.ID).
				WithDetails(map[string]any{
					"entity_id":         ep.ID.String(),
					"relationship_type": relType,
				})
		}
	}
	return nil
}
