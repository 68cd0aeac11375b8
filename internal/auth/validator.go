package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/support-mesh/internal/domain"
)

const bearerPrefix = "Bearer "

// TokenValidator composes the codec and the revocation registry.
type TokenValidator struct {
	codec    *TokenCodec
	registry RevocationRegistry
}

// NewTokenValidator builds a validator.
func NewTokenValidator(codec *TokenCodec, registry RevocationRegistry) *TokenValidator {
	return &TokenValidator{codec: codec, registry: registry}
}

// Validate checks revocation, then signature and expiry, and derives the
// identity envelope. The primary role is the first role in claim order.
func (v *TokenValidator) Validate(ctx context.Context, token string) (domain.IdentityEnvelope, error) {
	if token == "" {
		return domain.IdentityEnvelope{}, ErrMissing
	}

	revoked, err := v.registry.IsRevoked(ctx, token)
	if err != nil {
		return domain.IdentityEnvelope{}, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	if revoked {
		return domain.IdentityEnvelope{}, ErrRevoked
	}

	claims, err := v.codec.Parse(token)
	if err != nil {
		return domain.IdentityEnvelope{}, err
	}

	return domain.IdentityEnvelope{
		UserID:      claims.UserID,
		Username:    claims.Subject,
		PrimaryRole: claims.Roles[0],
	}, nil
}

// ValidateBearer validates an Authorization header value. An empty header or
// one without the Bearer prefix is ErrMissing.
func (v *TokenValidator) ValidateBearer(ctx context.Context, header string) (domain.IdentityEnvelope, error) {
	token, ok := BearerToken(header)
	if !ok {
		return domain.IdentityEnvelope{}, ErrMissing
	}
	return v.Validate(ctx, token)
}

// BearerToken strips the Bearer prefix. It reports false when the prefix is absent.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}
