package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/domain"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// RoleGate enforces "role >= required" in downstream services.
type RoleGate struct {
	hierarchy domain.RoleHierarchy
	lookup    RoleLookup
	validator *TokenValidator
	timeout   time.Duration
	logger    *zap.Logger
}

// RoleGateConfig configures a RoleGate.
type RoleGateConfig struct {
	Hierarchy domain.RoleHierarchy
	// Lookup resolves roles when no trusted role header is present.
	Lookup RoleLookup
	// Validator, when set, lets service-to-service calls that carry a bearer
	// token but no trusted headers authenticate.
	Validator *TokenValidator
	// LookupTimeout bounds each upstream role lookup.
	LookupTimeout time.Duration
	Logger        *zap.Logger
}

// NewRoleGate builds a gate. A zero LookupTimeout defaults to two seconds.
func NewRoleGate(cfg RoleGateConfig) *RoleGate {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RoleGate{
		hierarchy: cfg.Hierarchy,
		lookup:    cfg.Lookup,
		validator: cfg.Validator,
		timeout:   cfg.LookupTimeout,
		logger:    cfg.Logger,
	}
}

// RequireAtLeast reports whether resolved is a known role ranked at or above required.
func (g *RoleGate) RequireAtLeast(resolved, required domain.Role) bool {
	return g.hierarchy.AtLeast(resolved, required)
}

// HasRoleOrHigher looks up userID's role through pc and compares it. Any
// lookup failure, including a timeout, yields false.
func (g *RoleGate) HasRoleOrHigher(ctx context.Context, pc *PrincipalContext, userID string, required domain.Role) bool {
	role, err := g.lookupRole(ctx, pc, userID)
	if err != nil {
		g.logger.Warn("role lookup failed", zap.String("user_id", userID), zap.String("reason", Reason(err)))
		return false
	}
	return g.RequireAtLeast(role, required)
}

// RequireTrustedIdentity rejects requests that carry no delegated identity.
// Trusted headers are preferred; a bearer token is revalidated only when no
// identity headers are present and a validator is configured.
func (g *RoleGate) RequireTrustedIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := IdentityFromHeaders(c)
		if errors.Is(err, ErrMissing) && g.validator != nil {
			identity, err = g.validator.ValidateBearer(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		}
		if err != nil {
			g.logger.Warn("request without trusted identity",
				zap.String("path", c.Path()),
				zap.String("reason", Reason(err)))
			return apperrors.NewUnauthorized("unauthorized")
		}
		WithIdentity(c, identity)
		return c.Next()
	}
}

// Require is a route middleware wrapping Authorize.
func (g *RoleGate) Require(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := g.Authorize(c, required); err != nil {
			return err
		}
		return c.Next()
	}
}

// Authorize checks the caller against required. It returns nil when allowed,
// 401 when no identity is present, and 403 otherwise, including when the
// role lookup is unavailable.
func (g *RoleGate) Authorize(c *fiber.Ctx, required domain.Role) error {
	identity, ok := IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	role, err := g.ResolveRole(c, identity)
	if err != nil {
		g.logger.Warn("role resolution failed",
			zap.String("user_id", identity.UserID),
			zap.String("reason", Reason(err)))
		return forbidden(err)
	}

	if !g.RequireAtLeast(role, required) {
		g.logger.Info("insufficient role",
			zap.String("user_id", identity.UserID),
			zap.String("role", string(role)),
			zap.String("required", string(required)))
		return forbidden(ErrInsufficientRole)
	}
	return nil
}

// forbidden renders as a generic 403 while keeping cause for errors.Is.
func forbidden(cause error) error {
	return &apperrors.DomainError{
		Code:       "FORBIDDEN",
		Message:    "not authorized",
		HTTPStatus: http.StatusForbidden,
		Err:        cause,
	}
}

// ResolveRole returns the trusted role header value when present, otherwise
// the role looked up for the identity's user id, memoized per request.
func (g *RoleGate) ResolveRole(c *fiber.Ctx, identity domain.IdentityEnvelope) (domain.Role, error) {
	if identity.PrimaryRole != "" {
		return identity.PrimaryRole, nil
	}
	return g.lookupRole(c.UserContext(), PrincipalFromContext(c, g.lookup), identity.UserID)
}

func (g *RoleGate) lookupRole(ctx context.Context, pc *PrincipalContext, userID string) (domain.Role, error) {
	if pc == nil {
		pc = NewPrincipalContext(g.lookup)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	role, err := pc.RoleOf(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", err
		}
		if errors.Is(err, ErrLookupUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	return role, nil
}
