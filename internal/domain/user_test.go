package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-mesh/internal/domain"
)

func TestNewUser(t *testing.T) {
	u := domain.NewUser(" ada ", " Ada@Example.COM ", "hash")
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.CanLogin())
	assert.Equal(t, []domain.Role{domain.RoleUser}, u.Roles())

	u.Status = domain.UserStatusSuspended
	assert.False(t, u.CanLogin())

	var missing *domain.User
	assert.False(t, missing.CanLogin())
}
