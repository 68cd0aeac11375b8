package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/domain"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(map[string]string{"auth": "http://x"}, 0, nil)
	assert.Error(t, err)

	_, err = NewRouter(map[string]string{"/auth": "ftp://x"}, 0, nil)
	assert.Error(t, err)

	_, err = NewRouter(map[string]string{"/auth": "not a url"}, 0, nil)
	assert.Error(t, err)
}

func TestRouter_LongestPrefixWins(t *testing.T) {
	r, err := NewRouter(map[string]string{
		"/user":                 "http://identity:8081",
		"/user/auth":            "http://auth:8083/",
		"/support-tickets":      "http://support:8082",
		"/support-tickets/all/": "http://replica:8084",
	}, 0, nil)
	require.NoError(t, err)

	tests := []struct {
		path   string
		target string
		ok     bool
	}{
		{"/user/123/role", "http://identity:8081", true},
		{"/user/auth/login", "http://auth:8083", true},
		{"/user", "http://identity:8081", true},
		{"/users", "", false},
		{"/support-tickets/add", "http://support:8082", true},
		{"/support-tickets/all", "http://replica:8084", true},
		{"/support-tickets/all/cached", "http://replica:8084", true},
		{"/unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			up, ok := r.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, up.Target)
		})
	}
	assert.Equal(t, "/support-tickets/all", r.Upstreams()[0].Prefix)
}

func testErrorHandler(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code}})
}

func TestRouter_ProxiesTrustedHeadersEndToEnd(t *testing.T) {
	var (
		mu      sync.Mutex
		seen    http.Header
		seenURL string
	)
	last := func() (http.Header, string) {
		mu.Lock()
		defer mu.Unlock()
		return seen, seenURL
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = r.Header.Clone()
		seenURL = r.URL.RequestURI()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(upstream.Close)

	codec, err := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour, nil)
	require.NoError(t, err)
	validator := auth.NewTokenValidator(codec, auth.NewMemoryRevocationRegistry(nil))
	routes, err := auth.NewPublicRouteSet("/auth/login")
	require.NoError(t, err)
	router, err := NewRouter(map[string]string{"/support-tickets": upstream.URL, "/auth": upstream.URL}, 2*time.Second, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Use(auth.NewEdgeAuthFilter(routes, validator, nil, nil).Handle)
	app.All("/*", router.Handle)

	userID := "7f8d2f4e-9a43-4c3b-8d7e-0a1b2c3d4e5f"
	token, _, err := codec.Issue(auth.TokenClaims{Subject: "ada@example.com", UserID: userID, Roles: []domain.Role{domain.RoleUser}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/support-tickets/all?page=2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.HeaderRole, string(domain.RoleAdmin))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	headers, uri := last()
	assert.Equal(t, "/support-tickets/all?page=2", uri)
	assert.Equal(t, userID, headers.Get(auth.HeaderUserID))
	assert.Equal(t, "ada@example.com", headers.Get(auth.HeaderUsername))
	assert.Equal(t, string(domain.RoleUser), headers.Get(auth.HeaderRole))

	// Public route: forwarded without identity even when the client spoofs it.
	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(auth.HeaderUserID, userID)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	headers, uri = last()
	assert.Equal(t, "/auth/login", uri)
	assert.Empty(t, headers.Get(auth.HeaderUserID))

	// Rejected requests never reach the upstream.
	req = httptest.NewRequest(http.MethodGet, "/support-tickets/all", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_, uri = last()
	assert.Equal(t, "/auth/login", uri)
}

func TestRouter_UnknownPrefixAndDeadUpstream(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	router, err := NewRouter(map[string]string{"/support-tickets": deadURL}, time.Second, nil)
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.All("/*", router.Handle)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/support-tickets/all", nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
