package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_PUBLIC_ROUTES", "")
	t.Setenv("GATEWAY_UPSTREAMS", "")
	t.Setenv("AUTH_REVOCATION_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPublicRoutes, cfg.Gateway.PublicRoutes)
	assert.Empty(t, cfg.Gateway.Upstreams)
	assert.Equal(t, RevocationBackendRedis, cfg.Auth.RevocationBackend)
	assert.Equal(t, 2*time.Second, cfg.Identity.LookupTimeout)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
}

func TestLoad_GatewayOverrides(t *testing.T) {
	t.Setenv("GATEWAY_PUBLIC_ROUTES", "/auth/login, /docs/**")
	t.Setenv("GATEWAY_UPSTREAMS", "/auth=http://identity:8081/,/support-tickets=http://support:8082")
	t.Setenv("AUTH_REVOCATION_BACKEND", "MEMORY")
	t.Setenv("IDENTITY_LOOKUP_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/auth/login", "/docs/**"}, cfg.Gateway.PublicRoutes)
	assert.Equal(t, map[string]string{
		"/auth":            "http://identity:8081",
		"/support-tickets": "http://support:8082",
	}, cfg.Gateway.Upstreams)
	assert.Equal(t, RevocationBackendMemory, cfg.Auth.RevocationBackend)
	assert.Equal(t, 750*time.Millisecond, cfg.Identity.LookupTimeout)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("GATEWAY_UPSTREAMS", "auth-without-slash=http://x")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GATEWAY_UPSTREAMS", "")
	t.Setenv("AUTH_REVOCATION_BACKEND", "etcd")
	_, err = Load()
	require.Error(t, err)
}

func TestAuthConfig_SigningKey(t *testing.T) {
	_, err := AuthConfig{}.SigningKey()
	require.Error(t, err)

	_, err = AuthConfig{JWTSecret: "short"}.SigningKey()
	require.Error(t, err)

	raw := strings.Repeat("k", MinSigningKeyBytes)
	key, err := AuthConfig{JWTSecret: raw}.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), key)

	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	key, err = AuthConfig{JWTSecret: encoded, JWTSecretBase64: true}.SigningKey()
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), key)

	_, err = AuthConfig{JWTSecret: "%%%not-base64%%%", JWTSecretBase64: true}.SigningKey()
	require.Error(t, err)
}

func TestAuthConfig_RequireSharedRevocation(t *testing.T) {
	require.NoError(t, AuthConfig{RevocationBackend: RevocationBackendRedis}.RequireSharedRevocation())

	err := AuthConfig{RevocationBackend: RevocationBackendMemory}.RequireSharedRevocation()
	require.ErrorIs(t, err, ErrProcessLocalRevocation)

	t.Setenv("AUTH_REVOCATION_BACKEND", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Auth.RequireSharedRevocation(), ErrProcessLocalRevocation)
}
