package auth

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-mesh/internal/domain"
)

const principalKey = "auth_principal"

// RoleLookup is the upstream identity collaborator.
type RoleLookup interface {
	RoleByUserID(ctx context.Context, userID string) (domain.Role, error)
}

// RoleLookupFunc adapts a function into a RoleLookup.
type RoleLookupFunc func(ctx context.Context, userID string) (domain.Role, error)

// RoleByUserID satisfies RoleLookup.
func (f RoleLookupFunc) RoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	return f(ctx, userID)
}

type roleResult struct {
	role domain.Role
	err  error
}

// PrincipalContext memoizes role lookups for one request. Failures are
// memoized too so a request with several checks pays for one timeout at most.
// It must never outlive or be shared across requests.
type PrincipalContext struct {
	lookup  RoleLookup
	mu      sync.Mutex
	results map[string]roleResult
	calls   int
}

// NewPrincipalContext creates an empty per-request cache.
func NewPrincipalContext(lookup RoleLookup) *PrincipalContext {
	return &PrincipalContext{lookup: lookup, results: make(map[string]roleResult)}
}

// RoleOf returns the role for userID, calling the lookup at most once per user.
func (p *PrincipalContext) RoleOf(ctx context.Context, userID string) (domain.Role, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res, ok := p.results[userID]; ok {
		return res.role, res.err
	}
	if p.lookup == nil {
		return "", ErrLookupUnavailable
	}

	p.calls++
	role, err := p.lookup.RoleByUserID(ctx, userID)
	p.results[userID] = roleResult{role: role, err: err}
	return role, err
}

// Lookups returns how many upstream calls were made.
func (p *PrincipalContext) Lookups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// PrincipalFromContext returns the request's PrincipalContext, creating one
// bound to lookup on first use.
func PrincipalFromContext(c *fiber.Ctx, lookup RoleLookup) *PrincipalContext {
	if pc, ok := c.Locals(principalKey).(*PrincipalContext); ok {
		return pc
	}
	pc := NewPrincipalContext(lookup)
	c.Locals(principalKey, pc)
	return pc
}
