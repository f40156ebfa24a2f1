package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"catalog/internal/logger"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware_secret"

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func protectedApp(authService *services.AuthService) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(authService), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserID(c))
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	users := repositories.NewMemoryUserRepository()
	authService := services.NewAuthService(users, secret, time.Hour)
	app := protectedApp(authService)

	_, token, err := authService.Signup(context.Background(), models.SignupRequest{
		Name:             "Jane",
		Email:            "jane@example.com",
		Password:         "password123",
		PhoneNumber:      "1",
		Gender:           "Female",
		DateOfBirth:      "1990-01-01",
		MembershipStatus: "Active",
	})
	require.NoError(t, err)

	orphan, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "deleted-user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bearer without token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"token for unknown user", "Bearer " + orphan, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func limitedApp(rl *middleware.RateLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/login", rl.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	app := limitedApp(middleware.NewRateLimiter(nil, 1, time.Minute))

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	app := limitedApp(middleware.NewRateLimiter(client, 1, time.Minute))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
