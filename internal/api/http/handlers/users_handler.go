package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/oumaimagaidi/TicketFlow/internal/api/dto"
	"github.com/oumaimagaidi/TicketFlow/internal/auth"
	"github.com/oumaimagaidi/TicketFlow/internal/service"
	apperrors "github.com/oumaimagaidi/TicketFlow/pkg/util"
)

// UsersHandler exposes registration, login and token endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		return apperrors.NewValidationError("invalid registration data", fields)
	}

	user, err := h.auth.Register(c.Context(), service.RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.Password2,
		Role:            req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		return apperrors.NewValidationError("email and password required", fields)
	}

	user, access, refresh, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":    dto.NewUserResponse(user),
		"access":  access.Token,
		"refresh": refresh.Token,
	})
}

// Refresh handles POST /token/refresh.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		return apperrors.NewValidationError("refresh token required", fields)
	}

	access, err := h.auth.Refresh(c.Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenPairResponse{Access: access.Token})
}

// Logout handles POST /logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.Logout(c.Context(), req.Refresh); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "successfully logged out"})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}
