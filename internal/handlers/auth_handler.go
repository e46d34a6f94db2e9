package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/collabnest/backend/internal/services"
)

type AuthHandler struct {
	auth  *services.AuthService
	users *services.UserService
	log   zerolog.Logger
}

func NewAuthHandler(auth *services.AuthService, users *services.UserService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email" validate:"required,email"`
		Password   string `json:"password" validate:"required,min=8,max=72"`
		Name       string `json:"name" validate:"required,max=100"`
		University string `json:"university" validate:"max=200"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	user, err := h.auth.Register(c.Context(), req.Email, req.Password, req.Name, req.University)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return fail(c, h.log, err)
	}

	token, user, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := callerID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(user)
}
