package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type PublishHandler struct {
	s service.PublishService
}

func NewPublishHandler(s service.PublishService) *PublishHandler {
	return &PublishHandler{s: s}
}

// Publish posts to every requested target immediately. Per-target failures
// are reported in the result list, not as an HTTP error.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	results, err := h.s.Publish(c.Context(), userID, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"results": results,
	})
}
