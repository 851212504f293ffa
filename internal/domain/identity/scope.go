// Package identity defines operator roles and the data-scoping rules that
// bound every tenant-tagged query in the platform.
//
// Scope resolution is a pure lookup: (operator context, requested level) ->
// conjunctive equality filter. The resolver performs no I/O and holds no
// state, so the full role/level table is unit-testable in isolation. The
// persistence layer translates the resulting ScopeFilter into WHERE clauses
// (see infrastructure/persistence/datascope).
package identity

import "github.com/google/uuid"

// ScopeLevel is the granularity a caller requests for a scoped query.
type ScopeLevel string

const (
	// ScopeUnrestricted requests no tenant constraint at all. Only the
	// platform operator and unattended background sweeps resolve to it.
	ScopeUnrestricted ScopeLevel = "unrestricted"
	// ScopePharmacyWide restricts to the operator's pharmacy.
	ScopePharmacyWide ScopeLevel = "pharmacy"
	// ScopeBranchLevel restricts to the operator's branch within their pharmacy.
	ScopeBranchLevel ScopeLevel = "branch"
)

// ScopeFilter is a conjunctive equality constraint applied to any
// pharmacy-tagged query. A nil field means no constraint on that dimension.
// The zero value is unrestricted.
type ScopeFilter struct {
	PharmacyID *uuid.UUID
	BranchID   *uuid.UUID

	matchNone bool
}

// MatchNoneFilter returns a filter guaranteed to match zero records.
// It is the fail-closed result for unrecognized roles.
func MatchNoneFilter() ScopeFilter {
	return ScopeFilter{matchNone: true}
}

// IsUnrestricted reports whether the filter constrains nothing
func (f ScopeFilter) IsUnrestricted() bool {
	return !f.matchNone && f.PharmacyID == nil && f.BranchID == nil
}

// MatchesNothing reports whether the filter can never match a record
func (f ScopeFilter) MatchesNothing() bool {
	return f.matchNone
}

// ResolveScope computes the query filter for an operator at the requested
// scoping level. It is deterministic and side-effect free.
//
// Role table:
//   - SuperAdmin: unrestricted regardless of the requested level. This is a
//     documented visibility escape hatch for the platform operator, not an
//     oversight.
//   - Admin: pharmacy-wide regardless of the requested level. Administrators
//     manage an entire pharmacy, so a BranchLevel request collapses to the
//     pharmacy constraint; the branch dimension is never restricted for this
//     role even though that differs from the literal request.
//   - Pharmacist/Cashier: pharmacy-wide at ScopePharmacyWide, pharmacy plus
//     branch at ScopeBranchLevel. A ScopeUnrestricted request is clamped to
//     pharmacy-wide; these roles can never widen past their pharmacy.
//   - Any other role: a filter that matches zero records (fail closed).
//
// Context fields that are absent are omitted from the filter rather than
// rejected. Callers that assume both fields are always populated therefore
// see a wider filter than intended when the auth layer leaves one unset;
// this mirrors the platform's historical behavior and is tracked as a known
// authorization gap rather than silently tightened here.
func ResolveScope(tc TenantContext, level ScopeLevel) ScopeFilter {
	switch tc.Role {
	case RoleSuperAdmin:
		return ScopeFilter{}

	case RoleAdmin:
		return ScopeFilter{PharmacyID: tc.PharmacyID}

	case RolePharmacist, RoleCashier:
		if level == ScopeBranchLevel {
			return ScopeFilter{PharmacyID: tc.PharmacyID, BranchID: tc.BranchID}
		}
		return ScopeFilter{PharmacyID: tc.PharmacyID}

	default:
		return MatchNoneFilter()
	}
}
