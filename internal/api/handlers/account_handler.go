package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/pkg/utils"
)

type AccountHandler struct {
	s        service.AccountService
	registry *platform.Registry
	cfg      *config.Config
}

func NewAccountHandler(cfg *config.Config, s service.AccountService, registry *platform.Registry) *AccountHandler {
	return &AccountHandler{
		s:        s,
		registry: registry,
		cfg:      cfg,
	}
}

// AddSocialAccount starts the OAuth flow. The signed-in user is carried
// across the redirect inside the state JWT.
func (h *AccountHandler) AddSocialAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	state, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	authURL, err := h.s.GetAuthURL(c.Context(), c.Params("platform"), state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Redirect(authURL)
}

func (h *AccountHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platformName := c.Params("platform")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	if err := h.s.Callback(c.Context(), userID, platformName, code, state); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

// ConnectBluesky links a Bluesky account with an app password; there is no
// OAuth redirect for this platform.
func (h *AccountHandler) ConnectBluesky(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var body struct {
		Handle      string `json:"handle"`
		AppPassword string `json:"app_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.ConnectBluesky(c.Context(), userID, body.Handle, body.AppPassword); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := currentUserID(c)

	accountList, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

// ListPlatforms reports every platform the server can publish to.
func (h *AccountHandler) ListPlatforms(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platforms": h.registry.Platforms(),
	})
}

func (h *AccountHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)
	accountID := c.QueryInt("id", 0)

	if err := h.s.Delete(c.Context(), userID, int64(accountID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
