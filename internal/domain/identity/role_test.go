package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	for _, role := range AllRoles() {
		assert.True(t, role.IsValid(), "role %s", role)
	}
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("manager").IsValid())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("pharmacist")
	assert.True(t, ok)
	assert.Equal(t, RolePharmacist, role)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}
