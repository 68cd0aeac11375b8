package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/support-mesh/internal/domain"
)

// Clock returns the current time. Injected for deterministic expiry tests.
type Clock func() time.Time

// Claims is the JWT payload: sub, id, roles, iat, exp.
type Claims struct {
	UserID string        `json:"id"`
	Roles  []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenClaims is the input to Issue.
type TokenClaims struct {
	Subject string
	UserID  string
	Roles   []domain.Role
}

// TokenCodec signs and parses HS256 compact tokens with a single static key.
type TokenCodec struct {
	key   []byte
	ttl   time.Duration
	now   Clock
	parse *jwt.Parser
}

// NewTokenCodec builds a codec. A nil clock uses time.Now.
func NewTokenCodec(key []byte, ttl time.Duration, now Clock) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("token codec: empty signing key")
	}
	if ttl <= 0 {
		return nil, errors.New("token codec: ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: now,
		// Expiry is checked by Parse against the codec clock, after the signature.
		parse: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the lifetime given to issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue builds and signs a token for the given identity.
func (c *TokenCodec) Issue(in TokenClaims) (string, time.Time, error) {
	if in.UserID == "" || in.Subject == "" {
		return "", time.Time{}, errors.New("token codec: subject and user id are required")
	}
	if len(in.Roles) == 0 {
		return "", time.Time{}, errors.New("token codec: at least one role is required")
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)
	claims := &Claims{
		UserID: in.UserID,
		Roles:  append([]domain.Role(nil), in.Roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   in.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token codec: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and only then decodes and checks the claims.
func (c *TokenCodec) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parse.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if claims.UserID == "" || claims.Subject == "" || len(claims.Roles) == 0 {
		return nil, fmt.Errorf("%w: missing identity claims", ErrMalformed)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing timestamps", ErrMalformed)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return nil, fmt.Errorf("%w: exp not after iat", ErrMalformed)
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
