package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nikhilm27/socialcast/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID := currentUserID(c)

	userInfo, err := h.s.GetUserInfo(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(userInfo)
}

// RotateAPIKey replaces the user's API key. The plaintext key appears in
// this response only.
func (h *UserHandler) RotateAPIKey(c *fiber.Ctx) error {
	userID := currentUserID(c)

	key, err := h.s.RotateAPIKey(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"api_key": key,
	})
}
