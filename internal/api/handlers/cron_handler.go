package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/scheduler"
)

// CronHandler exposes the poller tick to external cron services. The
// endpoint accepts either the platform cron header or a bearer secret.
type CronHandler struct {
	poller *scheduler.Poller
	cfg    *config.Config
}

func NewCronHandler(cfg *config.Config, poller *scheduler.Poller) *CronHandler {
	return &CronHandler{poller: poller, cfg: cfg}
}

func (h *CronHandler) RunDuePosts(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	h.poller.Tick(c.Context())

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}

func (h *CronHandler) authorized(c *fiber.Ctx) bool {
	if c.Get("x-cron-trigger") != "" {
		return true
	}
	if h.cfg.CronSecret == "" {
		return false
	}
	auth := c.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ") == h.cfg.CronSecret
}
