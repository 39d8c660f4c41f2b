package middleware

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/pkg/utils"
)

type AuthMiddleware struct {
	s   service.UserService
	cfg *config.Config
}

func NewAuthMiddleware(cfg *config.Config, service service.UserService) *AuthMiddleware {
	return &AuthMiddleware{s: service, cfg: cfg}
}

// AuthMiddleware accepts either the session cookie or an API key sent in
// the X-Api-Key header or api_key query parameter.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		apiKey := c.Get("X-Api-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key or session cookie",
			})
		}

		if apiKey != "" {
			user, err := m.s.GetByAPIKey(c.Context(), apiKey)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid API key",
				})
			}
			c.Locals("user_id", fmt.Sprintf("%d", user.ID))
		} else {
			claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
			if err != nil {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})

				slog.Info("token validation failed", "error", err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}

			c.Locals("user_id", claims.UserID)
		}
		return c.Next()
	}
}
