package http

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/api/http/handlers"
	"github.com/spec-kit/support-mesh/internal/observability"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestMiddlewares_ErrorMapping(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 50*time.Millisecond)

	app.Get("/forbidden", func(c *fiber.Ctx) error { return apperrors.NewForbidden("nope") })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("db down") })
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return apperrors.NewNotFound("ticket", nil) })
	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return c.UserContext().Err()
	})
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/forbidden", fiber.StatusForbidden, "FORBIDDEN"},
		{"/boom", fiber.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/plain", fiber.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/slow", fiber.StatusGatewayTimeout, "TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := call(t, app, fiber.MethodGet, tt.path, nil, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}

	status, body := call(t, app, fiber.MethodGet, "/deadline", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["deadline"])

	for _, id := range []string{"0b4c9f6e-1f0a-4e55-9d8e-2f3a4b5c6d7e", "5d2e8a1b-7c3f-4a9e-b6d0-1e2f3a4b5c6d"} {
		status, _ := call(t, app, fiber.MethodGet, "/tickets/"+id, nil, nil)
		require.Equal(t, fiber.StatusNotFound, status)
	}

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Errors["/tickets/:id|GET|NOT_FOUND"])
	assert.Equal(t, int64(2), snap.Requests["/tickets/:id|GET|404"])
	assert.Equal(t, int64(1), snap.Errors["/forbidden|GET|FORBIDDEN"])
	assert.Equal(t, int64(1), snap.Requests["/boom|GET|500"])
}

func TestMiddlewares_RequestID(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/echo", func(c *fiber.Ctx) error {
		return c.SendString(c.Get(fiber.HeaderXRequestID))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/echo", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	minted := resp.Header.Get(fiber.HeaderXRequestID)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, minted, 36)
	assert.Equal(t, minted, string(raw))

	req = httptest.NewRequest(fiber.MethodGet, "/echo", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealth_Ready(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	health := handlers.NewHealthHandler("support", "test", map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)

	status, body := call(t, app, fiber.MethodGet, "/health/live", nil, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "support", body["service"])

	status, body = call(t, app, fiber.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "ok", details["postgres"])
	assert.Equal(t, "connection refused", details["redis"])
}
