package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/observability"
)

// EdgeAuthFilter is the gateway-side request interceptor.
type EdgeAuthFilter struct {
	routes    *PublicRouteSet
	validator *TokenValidator
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewEdgeAuthFilter constructs the filter.
func NewEdgeAuthFilter(routes *PublicRouteSet, validator *TokenValidator, logger *zap.Logger, metrics *observability.Metrics) *EdgeAuthFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EdgeAuthFilter{routes: routes, validator: validator, logger: logger, metrics: metrics}
}

// Handle lets public routes through and, for everything else, validates the
// bearer token and rewrites the trusted identity headers. Any failure ends
// the request with a generic 401 and nothing is forwarded.
func (f *EdgeAuthFilter) Handle(c *fiber.Ctx) error {
	StripTrustedHeaders(c)

	if f.routes.IsPublic(c.Path()) {
		return c.Next()
	}

	token, err := ExtractToken(c)
	if err != nil {
		return f.reject(c, err)
	}

	identity, err := f.validator.Validate(c.UserContext(), token)
	if err != nil {
		return f.reject(c, err)
	}

	SetTrustedHeaders(c, identity)
	WithIdentity(c, identity)
	return c.Next()
}

// ExtractToken reads the Authorization header. A missing header is ErrMissing;
// a value without the Bearer prefix is returned unchanged so validation
// rejects it as malformed.
func ExtractToken(c *fiber.Ctx) (string, error) {
	raw := c.Get(fiber.HeaderAuthorization)
	if raw == "" {
		return "", ErrMissing
	}
	if token, ok := BearerToken(raw); ok {
		return token, nil
	}
	return raw, nil
}

func (f *EdgeAuthFilter) reject(c *fiber.Ctx, err error) error {
	reason := Reason(err)
	f.metrics.RecordAuthFailure(reason)
	f.logger.Warn("request rejected at edge",
		zap.String("reason", reason),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "UNAUTHORIZED",
			"message": "unauthorized",
		},
	})
}
