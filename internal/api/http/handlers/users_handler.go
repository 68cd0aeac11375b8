package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/service"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// UsersHandler serves the internal per-user lookups other services depend on.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Role handles GET /user/:userId/role.
func (h *UsersHandler) Role(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId", "user")
	if err != nil {
		return err
	}
	role, err := h.auth.RoleByUserID(c.UserContext(), userID)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role": role}})
}

// Email handles GET /user/:userId/email.
func (h *UsersHandler) Email(c *fiber.Ctx) error {
	userID, err := pathID(c, "userId", "user")
	if err != nil {
		return err
	}
	email, err := h.auth.EmailByUserID(c.UserContext(), userID)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"email": email}})
}

func lookupError(err error) error {
	if errors.Is(err, auth.ErrUserNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	return err
}
