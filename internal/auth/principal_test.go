package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/domain"
)

func TestPrincipalContext_MemoizesPerUser(t *testing.T) {
	lookup := &countingLookup{role: domain.RoleModerator}
	pc := NewPrincipalContext(lookup)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		role, err := pc.RoleOf(ctx, testUserID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleModerator, role)
	}
	_, err := pc.RoleOf(ctx, "another-user")
	require.NoError(t, err)

	assert.Equal(t, 2, pc.Lookups())
	assert.Equal(t, int32(2), lookup.calls.Load())
}

func TestPrincipalContext_MemoizesFailures(t *testing.T) {
	lookup := &countingLookup{err: ErrUserNotFound}
	pc := NewPrincipalContext(lookup)

	_, err := pc.RoleOf(context.Background(), testUserID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = pc.RoleOf(context.Background(), testUserID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 1, pc.Lookups())
}

func TestPrincipalContext_NilLookup(t *testing.T) {
	_, err := NewPrincipalContext(nil).RoleOf(context.Background(), testUserID)
	assert.ErrorIs(t, err, ErrLookupUnavailable)
}

func TestPrincipalFromContext_ScopedToRequest(t *testing.T) {
	lookup := &countingLookup{role: domain.RoleUser}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		first := PrincipalFromContext(c, lookup)
		second := PrincipalFromContext(c, lookup)
		assert.Same(t, first, second)
		_, _ = first.RoleOf(c.UserContext(), testUserID)
		_, _ = second.RoleOf(c.UserContext(), testUserID)
		return c.SendStatus(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, int32(2), lookup.calls.Load())
}
