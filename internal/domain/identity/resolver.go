// Package identity derives a caller's accessible organizations and effective
// roles from a snapshot of MEMBER_OF and HAS_ROLE edges.
package identity

import (
	"sort"

	"github.com/google/uuid"
)

// Membership is one active MEMBER_OF edge
type Membership struct {
	OrganizationID uuid.UUID
	RelationshipID uuid.UUID
	// Role is the role carried on the edge payload, if any
	Role string
}

// RoleGrant is one active HAS_ROLE edge resolved to a role name
type RoleGrant struct {
	OrganizationID uuid.UUID
	Role           string
}

// OrganizationInfo is the organization data exposed by introspection
type OrganizationInfo struct {
	ID       uuid.UUID
	Code     string
	Name     string
	IsActive bool
	Apps     []string
}

// Snapshot is everything resolution needs, loaded once per request
type Snapshot struct {
	UserEntityID uuid.UUID
	// PreferredOrganizationID comes from the user's metadata
	PreferredOrganizationID *uuid.UUID
	Memberships             []Membership
	Roles                   []RoleGrant
	Organizations           map[uuid.UUID]OrganizationInfo
}

// OrganizationAccess is one accessible organization
type OrganizationAccess struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	PrimaryRole string    `json:"primary_role"`
	Roles       []string  `json:"roles"`
	Apps        []string  `json:"apps"`
}

// Introspection is the resolved view of one user
type Introspection struct {
	UserEntityID          uuid.UUID            `json:"user_entity_id"`
	Organizations         []OrganizationAccess `json:"organizations"`
	DefaultOrganizationID *uuid.UUID           `json:"default_organization_id"`
}

// Access returns the caller's access to orgID
func (i Introspection) Access(orgID uuid.UUID) (OrganizationAccess, bool) {
	for _, o := range i.Organizations {
		if o.ID == orgID {
			return o, true
		}
	}
	return OrganizationAccess{}, false
}

// Resolve builds the introspection result. It is a pure function of s:
// memberships to unknown or inactive organizations are ignored, the primary
// role is the highest-privilege role, organizations are ordered by name then id.
func Resolve(s Snapshot) Introspection {
	roles := make(map[uuid.UUID]map[string]struct{})
	addRole := func(org uuid.UUID, role string) {
		role = NormalizeRole(role)
		if role == "" {
			return
		}
		if roles[org] == nil {
			roles[org] = make(map[string]struct{})
		}
		roles[org][role] = struct{}{}
	}

	members := make(map[uuid.UUID]struct{})
	for _, m := range s.Memberships {
		members[m.OrganizationID] = struct{}{}
		addRole(m.OrganizationID, m.Role)
	}
	for _, g := range s.Roles {
		if _, ok := members[g.OrganizationID]; ok {
			addRole(g.OrganizationID, g.Role)
		}
	}

	out := Introspection{
		UserEntityID:  s.UserEntityID,
		Organizations: make([]OrganizationAccess, 0, len(members)),
	}

	for orgID := range members {
		info, ok := s.Organizations[orgID]
		if !ok || !info.IsActive {
			continue
		}
		roleSet := sortedRoles(roles[orgID])
		if len(roleSet) == 0 {
			roleSet = []string{RoleMember}
		}
		apps := info.Apps
		if apps == nil {
			apps = []string{}
		}
		out.Organizations = append(out.Organizations, OrganizationAccess{
			ID:          orgID,
			Code:        info.Code,
			Name:        info.Name,
			PrimaryRole: roleSet[0],
			Roles:       roleSet,
			Apps:        apps,
		})
	}

	sort.Slice(out.Organizations, func(i, j int) bool {
		a, b := out.Organizations[i], out.Organizations[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})

	out.DefaultOrganizationID = pickDefault(out.Organizations, s.PreferredOrganizationID)
	return out
}

// sortedRoles orders roles by privilege, highest first
func sortedRoles(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return Outranks(out[i], out[j]) })
	return out
}

func pickDefault(orgs []OrganizationAccess, preferred *uuid.UUID) *uuid.UUID {
	if len(orgs) == 0 {
		return nil
	}
	if preferred != nil {
		for _, o := range orgs {
			if o.ID == *preferred {
				id := o.ID
				return &id
			}
		}
	}
	id := orgs[0].ID
	return &id
}
