package identity

// Role is the closed set of operator roles in the platform. Scoping logic
// switches exhaustively over this type; adding a role requires revisiting
// every switch (the fail-closed default otherwise hides the new role behind
// a match-nothing filter).
type Role string

const (
	// RoleSuperAdmin is the platform operator. Visibility is never restricted.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin manages an entire pharmacy, across all of its branches.
	RoleAdmin Role = "admin"
	// RolePharmacist works within a single branch.
	RolePharmacist Role = "pharmacist"
	// RoleCashier works within a single branch.
	RoleCashier Role = "cashier"
)

// AllRoles returns every recognized role
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RolePharmacist, RoleCashier}
}

// IsValid reports whether the role is one of the recognized roles
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RolePharmacist, RoleCashier:
		return true
	}
	return false
}

// ParseRole parses a role string, returning ok=false for unknown values
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}
