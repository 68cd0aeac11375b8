package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-mesh/internal/api/http/handlers"
	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/domain"
	"github.com/spec-kit/support-mesh/internal/gateway"
)

// GatewayRoutes bundles dependencies for the edge.
type GatewayRoutes struct {
	Health *handlers.HealthHandler
	Filter *auth.EdgeAuthFilter
	Proxy  *gateway.Router
}

// RegisterGatewayRoutes runs the edge filter in front of everything, serves
// health locally and proxies the rest.
func RegisterGatewayRoutes(app *fiber.App, cfg GatewayRoutes) {
	app.Use(cfg.Filter.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.All("/*", cfg.Proxy.Handle)
}

// IdentityRoutes bundles dependencies for the identity service.
type IdentityRoutes struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
}

// RegisterIdentityRoutes wires the identity service. Registration and login
// are served under both /auth and /user/auth.
func RegisterIdentityRoutes(app *fiber.App, cfg IdentityRoutes) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	for _, prefix := range []string{"/auth", "/user/auth"} {
		group := app.Group(prefix)
		group.Post("/register", cfg.Auth.Register)
		group.Post("/login", cfg.Auth.Login)
	}
	app.Post("/auth/logout", cfg.Auth.Logout)
	app.Post("/auth/token", cfg.Auth.Validate)
	app.Post("/user/auth/validate", cfg.Auth.Validate)

	app.Get("/user/:userId/role", cfg.Users.Role)
	app.Get("/user/:userId/email", cfg.Users.Email)
}

// SupportRoutes bundles dependencies for the support ticket service.
type SupportRoutes struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Gate    *auth.RoleGate
}

// RegisterSupportRoutes wires the ticket endpoints behind the trusted
// identity check and per-route role requirements.
func RegisterSupportRoutes(app *fiber.App, cfg SupportRoutes) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	gate := cfg.Gate
	tickets := app.Group("/support-tickets", gate.RequireTrustedIdentity())
	tickets.Get("/all", gate.Require(domain.RoleSupportStaff), cfg.Tickets.ListAll)
	tickets.Get("/all/cached", gate.Require(domain.RoleSupportStaff), cfg.Tickets.ListAllCached)
	tickets.Get("/mine", gate.Require(domain.RoleUser), cfg.Tickets.ListMine)
	tickets.Post("/add", gate.Require(domain.RoleUser), cfg.Tickets.Create)
	tickets.Put("/update/staff/:id", gate.Require(domain.RoleSupportStaff), cfg.Tickets.UpdateAsStaff)
	tickets.Put("/update/:id", cfg.Tickets.UpdateAsOwner)
	tickets.Get("/:id", cfg.Tickets.Get)
}
