package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/domain"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Hour)

	in := TokenClaims{
		Subject: "ada@example.com",
		UserID:  testUserID,
		Roles:   []domain.Role{domain.RoleSupportStaff, domain.RoleUser},
	}
	token, expiresAt, err := codec.Issue(in)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.True(t, clock.Now().Add(time.Hour).Equal(expiresAt))

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in.Subject, claims.Subject)
	assert.Equal(t, in.UserID, claims.UserID)
	assert.Equal(t, in.Roles, claims.Roles)
	assert.True(t, claims.IssuedAtTime().Equal(clock.Now()))
	assert.True(t, claims.ExpiresAtTime().Equal(expiresAt))
}

func TestTokenCodec_DeterministicForSameInputAndTime(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Hour)

	a := issueTestToken(t, codec)
	b := issueTestToken(t, codec)
	assert.Equal(t, a, b)

	clock.Advance(time.Second)
	assert.NotEqual(t, a, issueTestToken(t, codec))
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	ttl := 10 * time.Minute
	codec := newTestCodec(t, clock, ttl)
	token := issueTestToken(t, codec)

	clock.Advance(ttl - time.Second)
	_, err := codec.Parse(token)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)

	clock.Advance(time.Hour)
	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestTokenCodec_SignatureCheckedBeforeExpiry(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Minute)

	other, err := NewTokenCodec([]byte(strings.Repeat("x", 32)), time.Minute, clock.Now)
	require.NoError(t, err)
	forged := issueTestToken(t, other)

	clock.Advance(time.Hour)
	_, err = codec.Parse(forged)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Hour)

	claims := &Claims{
		UserID: testUserID,
		Roles:  []domain.Role{domain.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory@example.com",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)
	require.NoError(t, err)
	_, err = codec.Parse(hs512)
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Parse(none)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestTokenCodec_Malformed(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Hour)

	for _, raw := range []string{"garbage", "a.b.c", "Basic dXNlcjpwYXNz"} {
		_, err := codec.Parse(raw)
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestTokenCodec_MissingClaimsAreMalformed(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, clock, time.Hour)

	sign := func(c *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testKey)
		require.NoError(t, err)
		return s
	}
	iat := jwt.NewNumericDate(clock.Now())
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	noRoles := sign(&Claims{UserID: testUserID, RegisteredClaims: jwt.RegisteredClaims{Subject: "a", IssuedAt: iat, ExpiresAt: exp}})
	noExp := sign(&Claims{UserID: testUserID, Roles: []domain.Role{domain.RoleUser}, RegisteredClaims: jwt.RegisteredClaims{Subject: "a", IssuedAt: iat}})
	backwards := sign(&Claims{UserID: testUserID, Roles: []domain.Role{domain.RoleUser}, RegisteredClaims: jwt.RegisteredClaims{Subject: "a", IssuedAt: exp, ExpiresAt: iat}})

	for name, token := range map[string]string{"no roles": noRoles, "no exp": noExp, "exp before iat": backwards} {
		_, err := codec.Parse(token)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestTokenCodec_IssueValidatesInput(t *testing.T) {
	codec := newTestCodec(t, newFakeClock(), time.Hour)

	_, _, err := codec.Issue(TokenClaims{Subject: "a", UserID: testUserID})
	assert.Error(t, err)
	_, _, err = codec.Issue(TokenClaims{UserID: testUserID, Roles: []domain.Role{domain.RoleUser}})
	assert.Error(t, err)
}

func TestNewTokenCodec_Validation(t *testing.T) {
	_, err := NewTokenCodec(nil, time.Hour, nil)
	assert.Error(t, err)
	_, err = NewTokenCodec(testKey, 0, nil)
	assert.Error(t, err)
}
