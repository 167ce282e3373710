package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAllows(t *testing.T) {
	policy := Policy{RequiredRole: "MANAGER", RequiredUserID: 7}

	assert.True(t, policy.Allows(Actor{ID: 7, Role: "MANAGER"}))

	// Role alone is not enough.
	assert.False(t, policy.Allows(Actor{ID: 8, Role: "MANAGER"}))

	// Identity alone is not enough.
	assert.False(t, policy.Allows(Actor{ID: 7, Role: "SELLER"}))

	assert.False(t, policy.Allows(Actor{}))
}

func TestPolicyZeroValueDeniesEveryone(t *testing.T) {
	var policy Policy
	assert.False(t, policy.Allows(Actor{ID: 0, Role: ""}))
	assert.False(t, policy.Allows(Actor{ID: 1, Role: "MANAGER"}))
}
