package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(s service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: s}
}

func (h *ScheduleHandler) CreateScheduledPost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var sc transfer.ScheduleCreation
	if err := c.BodyParser(&sc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, err := h.s.Create(c.Context(), userID, &sc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      postID,
		"message": "Post scheduled successfully",
	})
}

func (h *ScheduleHandler) ListScheduledPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), userID, int64(postID))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get scheduled post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *ScheduleHandler) RemoveScheduledPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
