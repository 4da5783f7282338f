package handlers

import (
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/services"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

type RewardHandler struct {
	rewardService *services.RewardService
	adminID       string
}

func NewRewardHandler(rewardService *services.RewardService, adminID string) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
		adminID:       adminID,
	}
}

func (h *RewardHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/rewards")

	group.Get("/me", h.GetOwnAccount)       // GET /rewards/me
	group.Get("/:party_id", h.GetAccount)   // GET /rewards/:party_id (admin or self)
}

// GetOwnAccount returns the caller's reward account.
func (h *RewardHandler) GetOwnAccount(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	account, err := h.rewardService.GetAccount(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, "get reward account", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(account))
}

// GetAccount returns any party's reward account. Self or administrator.
func (h *RewardHandler) GetAccount(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	partyID := c.Params("party_id")
	if userID != partyID && userID != h.adminID {
		return c.Status(http.StatusForbidden).JSON(
			httputil.CreateErrorResponse("FORBIDDEN", "Reward accounts are private"))
	}

	account, err := h.rewardService.GetAccount(c.Context(), partyID)
	if err != nil {
		return respondServiceError(c, "get reward account", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(account))
}
