package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScope_SuperAdmin(t *testing.T) {
	pharmacyID := uuid.New()
	branchID := uuid.New()
	ctx := NewTenantContext(RoleSuperAdmin, pharmacyID, branchID, uuid.New())

	for _, level := range []ScopeLevel{ScopeUnrestricted, ScopePharmacyWide, ScopeBranchLevel} {
		filter := ResolveScope(ctx, level)
		assert.True(t, filter.IsUnrestricted(), "level %s", level)
		assert.Nil(t, filter.PharmacyID)
		assert.Nil(t, filter.BranchID)
	}
}

func TestResolveScope_Admin_BranchCollapsesToPharmacy(t *testing.T) {
	pharmacyID := uuid.New()
	branchID := uuid.New()
	ctx := NewTenantContext(RoleAdmin, pharmacyID, branchID, uuid.New())

	filter := ResolveScope(ctx, ScopeBranchLevel)

	require.NotNil(t, filter.PharmacyID)
	assert.Equal(t, pharmacyID, *filter.PharmacyID)
	assert.Nil(t, filter.BranchID, "admin branch dimension must never be restricted")
}

func TestResolveScope_Admin_PharmacyWide(t *testing.T) {
	pharmacyID := uuid.New()
	ctx := NewTenantContext(RoleAdmin, pharmacyID, uuid.New(), uuid.New())

	filter := ResolveScope(ctx, ScopePharmacyWide)

	require.NotNil(t, filter.PharmacyID)
	assert.Equal(t, pharmacyID, *filter.PharmacyID)
	assert.Nil(t, filter.BranchID)
}

func TestResolveScope_BranchRoles(t *testing.T) {
	pharmacyID := uuid.New()
	branchID := uuid.New()

	for _, role := range []Role{RolePharmacist, RoleCashier} {
		t.Run(string(role), func(t *testing.T) {
			ctx := NewTenantContext(role, pharmacyID, branchID, uuid.New())

			branchFilter := ResolveScope(ctx, ScopeBranchLevel)
			require.NotNil(t, branchFilter.PharmacyID)
			require.NotNil(t, branchFilter.BranchID)
			assert.Equal(t, pharmacyID, *branchFilter.PharmacyID)
			assert.Equal(t, branchID, *branchFilter.BranchID)

			pharmacyFilter := ResolveScope(ctx, ScopePharmacyWide)
			require.NotNil(t, pharmacyFilter.PharmacyID)
			assert.Equal(t, pharmacyID, *pharmacyFilter.PharmacyID)
			assert.Nil(t, pharmacyFilter.BranchID)
		})
	}
}

func TestResolveScope_BranchRoles_UnrestrictedClampedToPharmacy(t *testing.T) {
	pharmacyID := uuid.New()
	ctx := NewTenantContext(RoleCashier, pharmacyID, uuid.New(), uuid.New())

	filter := ResolveScope(ctx, ScopeUnrestricted)

	require.NotNil(t, filter.PharmacyID)
	assert.Equal(t, pharmacyID, *filter.PharmacyID)
	assert.Nil(t, filter.BranchID)
	assert.False(t, filter.IsUnrestricted())
}

func TestResolveScope_UnrecognizedRole_FailsClosed(t *testing.T) {
	ctx := NewTenantContext(Role("intern"), uuid.New(), uuid.New(), uuid.New())

	filter := ResolveScope(ctx, ScopeBranchLevel)

	assert.True(t, filter.MatchesNothing())
	assert.False(t, filter.IsUnrestricted())
}

func TestResolveScope_MissingContextFieldsAreOmitted(t *testing.T) {
	// An operator context without pharmacy/branch bindings resolves to a
	// filter with only the present fields. Known authorization gap: the
	// resulting filter is wider than the requested level implies.
	ctx := TenantContext{Role: RolePharmacist, UserID: uuid.New()}

	filter := ResolveScope(ctx, ScopeBranchLevel)

	assert.Nil(t, filter.PharmacyID)
	assert.Nil(t, filter.BranchID)
	assert.False(t, filter.MatchesNothing())
}

func TestScopeFilter_ZeroValueIsUnrestricted(t *testing.T) {
	var filter ScopeFilter
	assert.True(t, filter.IsUnrestricted())
	assert.False(t, filter.MatchesNothing())
}
