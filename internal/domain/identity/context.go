package identity

import (
	"github.com/google/uuid"
)

// TenantContext carries the identity of the operator behind a request.
// It is supplied by the auth layer per invocation and passed explicitly
// into every scoped call; it is never cached in package state.
// PharmacyID and BranchID are nil for identities that are not bound to a
// pharmacy (the platform operator, background jobs).
type TenantContext struct {
	Role       Role
	PharmacyID *uuid.UUID
	BranchID   *uuid.UUID
	UserID     uuid.UUID
}

// NewTenantContext creates a fully-bound operator context
func NewTenantContext(role Role, pharmacyID, branchID, userID uuid.UUID) TenantContext {
	return TenantContext{
		Role:       role,
		PharmacyID: &pharmacyID,
		BranchID:   &branchID,
		UserID:     userID,
	}
}
