package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// currentUserID reads the authenticated user's ID that the auth middleware
// stored on the request context. A missing or malformed value yields 0,
// which matches no user row.
func currentUserID(c *fiber.Ctx) int64 {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
