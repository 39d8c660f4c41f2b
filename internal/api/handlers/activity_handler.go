package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nikhilm27/socialcast/internal/service"
)

type ActivityHandler struct {
	s service.ActivityService
}

func NewActivityHandler(s service.ActivityService) *ActivityHandler {
	return &ActivityHandler{s: s}
}

func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	userID := currentUserID(c)
	limit := c.QueryInt("limit", 50)

	entries, err := h.s.List(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list activity",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}
