package identity

import "strings"

// Built-in roles, highest privilege first
const (
	RoleOwner        = "owner"
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleAccountant   = "accountant"
	RoleReceptionist = "receptionist"
	RoleStaff        = "staff"
	RoleMember       = "member"
	RoleViewer       = "viewer"
)

var roleRank = map[string]int{
	RoleOwner:        100,
	RoleAdmin:        90,
	RoleManager:      70,
	RoleAccountant:   50,
	RoleReceptionist: 40,
	RoleStaff:        30,
	RoleMember:       20,
	RoleViewer:       10,
}

// NormalizeRole lower-cases a role name and strips the ORG_ prefix used by role entity codes
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	return strings.TrimPrefix(r, "org_")
}

// Rank returns the privilege rank of a role; unknown roles rank lowest
func Rank(role string) int {
	return roleRank[NormalizeRole(role)]
}

// Outranks reports whether a should win over b as primary role.
// Equal ranks fall back to name order so the choice is deterministic.
func Outranks(a, b string) bool {
	ra, rb := Rank(a), Rank(b)
	if ra != rb {
		return ra > rb
	}
	return NormalizeRole(a) < NormalizeRole(b)
}

// IsAdministrative reports whether role may manage members of an organization
func IsAdministrative(role string) bool {
	return Rank(role) >= roleRank[RoleAdmin]
}

// IsKnownRole reports whether role names one of the built-in roles
func IsKnownRole(role string) bool {
	_, ok := roleRank[NormalizeRole(role)]
	return ok
}

// RoleEntityCode is the entity code of the ROLE entity that carries role in an organization
func RoleEntityCode(role string) string {
	return "ORG_" + strings.ToUpper(NormalizeRole(role))
}
