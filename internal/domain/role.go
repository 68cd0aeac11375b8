package domain

// Role identifies a privilege level carried in tokens and trusted headers.
type Role string

const (
	RoleAdmin        Role = "ROLE_ADMIN"
	RoleModerator    Role = "ROLE_MODERATOR"
	RoleSupportStaff Role = "ROLE_SUPPORT_STAFF"
	RoleUser         Role = "ROLE_USER"
)

// RoleHierarchy is an immutable role -> rank table. Higher rank means more privilege.
type RoleHierarchy struct {
	ranks map[Role]int
}

// NewRoleHierarchy builds a hierarchy from roles ordered highest first.
func NewRoleHierarchy(highestFirst ...Role) RoleHierarchy {
	ranks := make(map[Role]int, len(highestFirst))
	for i, role := range highestFirst {
		ranks[role] = len(highestFirst) - i
	}
	return RoleHierarchy{ranks: ranks}
}

// DefaultRoleHierarchy is ADMIN > MODERATOR > SUPPORT_STAFF > USER.
var DefaultRoleHierarchy = NewRoleHierarchy(RoleAdmin, RoleModerator, RoleSupportStaff, RoleUser)

// Rank returns the rank of role and whether the role is known.
func (h RoleHierarchy) Rank(role Role) (int, bool) {
	rank, ok := h.ranks[role]
	return rank, ok
}

// Known reports whether role exists in the hierarchy.
func (h RoleHierarchy) Known(role Role) bool {
	_, ok := h.ranks[role]
	return ok
}

// Compare returns rank(a) - rank(b). Unknown roles rank as zero.
func (h RoleHierarchy) Compare(a, b Role) int {
	return h.ranks[a] - h.ranks[b]
}

// AtLeast reports whether resolved is known and ranks at or above required.
// An unknown required role can never be satisfied.
func (h RoleHierarchy) AtLeast(resolved, required Role) bool {
	have, ok := h.ranks[resolved]
	if !ok {
		return false
	}
	need, ok := h.ranks[required]
	if !ok {
		return false
	}
	return have >= need
}

// Roles returns the known roles, highest first.
func (h RoleHierarchy) Roles() []Role {
	out := make([]Role, len(h.ranks))
	for role, rank := range h.ranks {
		out[len(h.ranks)-rank] = role
	}
	return out
}

// ParseRole returns the role for s and whether it is one of the default roles.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, DefaultRoleHierarchy.Known(role)
}
