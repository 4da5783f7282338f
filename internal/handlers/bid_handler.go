package handlers

import (
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

type BidHandler struct {
	bidService *services.BidService
}

func NewBidHandler(bidService *services.BidService) *BidHandler {
	return &BidHandler{bidService: bidService}
}

func (h *BidHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/bids")

	group.Post("/", h.PlaceBid)           // POST /bids
	group.Get("/mine", h.ListOwnBids)     // GET  /bids/mine
	group.Get("/:id", h.GetBid)           // GET  /bids/:id
	group.Put("/:id", h.ModifyBid)        // PUT  /bids/:id
	group.Post("/:id/cancel", h.CancelBid) // POST /bids/:id/cancel
}

// PlaceBid submits an offer against an open proposal. Registered insurance
// companies only.
func (h *BidHandler) PlaceBid(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.PlaceBidRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	bid, err := h.bidService.PlaceBid(c.Context(), userID, req)
	if err != nil {
		return respondServiceError(c, "place bid", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(bid))
}

// ModifyBid updates the caller's active bid.
func (h *BidHandler) ModifyBid(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	bidID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	var req models.ModifyBidRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	bid, err := h.bidService.ModifyBid(c.Context(), userID, bidID, req)
	if err != nil {
		return respondServiceError(c, "modify bid", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(bid))
}

// CancelBid withdraws the caller's active bid.
func (h *BidHandler) CancelBid(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	bidID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	bid, err := h.bidService.CancelBid(c.Context(), userID, bidID)
	if err != nil {
		return respondServiceError(c, "cancel bid", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(bid))
}

func (h *BidHandler) GetBid(c fiber.Ctx) error {
	bidID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	bid, err := h.bidService.GetBid(c.Context(), bidID)
	if err != nil {
		return respondServiceError(c, "get bid", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(bid))
}

func (h *BidHandler) ListOwnBids(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	bids, err := h.bidService.ListByInsurer(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, "list bids", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"bids":  bids,
		"count": len(bids),
	}))
}
