package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/support-mesh/internal/domain"
)

// Trusted identity headers. Only the edge filter sets them on requests that cross it.
const (
	HeaderUserID   = "userId"
	HeaderUsername = "username"
	HeaderRole     = "role"
)

// TrustedHeaders lists every header that carries delegated identity.
var TrustedHeaders = []string{HeaderUserID, HeaderUsername, HeaderRole}

const identityKey = "auth_identity"

// StripTrustedHeaders deletes client-supplied identity headers.
func StripTrustedHeaders(c *fiber.Ctx) {
	for _, h := range TrustedHeaders {
		c.Request().Header.Del(h)
	}
}

// SetTrustedHeaders overwrites the identity headers with the envelope.
func SetTrustedHeaders(c *fiber.Ctx, identity domain.IdentityEnvelope) {
	c.Request().Header.Set(HeaderUserID, identity.UserID)
	c.Request().Header.Set(HeaderUsername, identity.Username)
	c.Request().Header.Set(HeaderRole, string(identity.PrimaryRole))
}

// IdentityFromHeaders reads the envelope an upstream edge attached. Only the
// shape is checked: userId must be a UUID. username and role may be absent
// on service-to-service calls, in which case the role is looked up.
func IdentityFromHeaders(c *fiber.Ctx) (domain.IdentityEnvelope, error) {
	userID := c.Get(HeaderUserID)
	if userID == "" {
		return domain.IdentityEnvelope{}, ErrMissing
	}
	if _, err := uuid.Parse(userID); err != nil {
		return domain.IdentityEnvelope{}, ErrMalformed
	}
	return domain.IdentityEnvelope{
		UserID:      userID,
		Username:    c.Get(HeaderUsername),
		PrimaryRole: domain.Role(c.Get(HeaderRole)),
	}, nil
}

// WithIdentity stores the resolved identity for the rest of the request.
func WithIdentity(c *fiber.Ctx, identity domain.IdentityEnvelope) {
	c.Locals(identityKey, identity)
}

// IdentityFromContext returns the identity stored by the edge filter or RequireTrustedIdentity.
func IdentityFromContext(c *fiber.Ctx) (domain.IdentityEnvelope, bool) {
	identity, ok := c.Locals(identityKey).(domain.IdentityEnvelope)
	return identity, ok
}
