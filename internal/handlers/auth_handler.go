package handlers

import (
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// authResponse is returned by both signup and login.
type authResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// RegisterRoutes registers the user routes. limit runs before both handlers.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limit fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/signup", limit, h.HandleSignup)
	userRoutes.Post("/login", limit, h.HandleLogin)
}

// HandleSignup handles new user registration.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	user, token, err := h.authService.Signup(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromFiber(c).Info().Str("user_id", user.ID).Msg("User registered")
	return c.Status(fiber.StatusCreated).JSON(authResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return invalidBody(c, err)
	}

	user, token, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(authResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
}
