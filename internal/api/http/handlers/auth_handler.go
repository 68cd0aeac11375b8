package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-mesh/internal/api/dto"
	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/service"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// AuthHandler exposes registration, login, logout and token validation.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User registered",
		"data":    dto.ToUserResponse(user),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Login success",
		"data":    dto.AuthResponse{ID: res.User.ID, Token: res.Token, ExpiresAt: res.ExpiresAt},
	})
}

// Logout handles POST /auth/logout by revoking the bearer token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}
	if err := h.auth.Logout(c.UserContext(), token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Validate handles POST /auth/token. The token comes from the Authorization
// header or, failing that, a JSON body. It always answers 200.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		var req dto.TokenRequest
		if len(c.Body()) > 0 {
			_ = c.BodyParser(&req)
		}
		token = strings.TrimSpace(req.Token)
	}

	identity, err := h.auth.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.JSON(dto.TokenValidationResponse{Valid: false})
	}
	return c.JSON(dto.TokenValidationResponse{
		Valid:    true,
		Username: identity.Username,
		UserID:   identity.UserID,
		Role:     identity.PrimaryRole,
	})
}
