package handlers

import (
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
	bidService      *services.BidService
}

func NewProposalHandler(proposalService *services.ProposalService, bidService *services.BidService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		bidService:      bidService,
	}
}

func (h *ProposalHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/proposals")

	group.Post("/", h.CreateProposal)        // POST /proposals
	group.Get("/", h.ListProposals)          // GET  /proposals?active=true
	group.Get("/mine", h.ListOwnProposals)   // GET  /proposals/mine
	group.Get("/:id", h.GetProposal)         // GET  /proposals/:id
	group.Post("/:id/cancel", h.CancelProposal) // POST /proposals/:id/cancel
	group.Get("/:id/bids", h.ListBids)       // GET  /proposals/:id/bids
}

// CreateProposal posts a new coverage request.
func (h *ProposalHandler) CreateProposal(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.CreateProposalRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	proposal, err := h.proposalService.CreateProposal(c.Context(), userID, req)
	if err != nil {
		return respondServiceError(c, "create proposal", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(proposal))
}

// CancelProposal withdraws a bid-free open proposal.
func (h *ProposalHandler) CancelProposal(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	proposalID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	proposal, err := h.proposalService.CancelProposal(c.Context(), userID, proposalID)
	if err != nil {
		return respondServiceError(c, "cancel proposal", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(proposal))
}

func (h *ProposalHandler) GetProposal(c fiber.Ctx) error {
	proposalID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	proposal, err := h.proposalService.GetProposal(c.Context(), proposalID)
	if err != nil {
		return respondServiceError(c, "get proposal", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(proposal))
}

func (h *ProposalHandler) ListProposals(c fiber.Ctx) error {
	activeOnly := c.Query("active") == "true"

	proposals, err := h.proposalService.ListProposals(c.Context(), activeOnly)
	if err != nil {
		return respondServiceError(c, "list proposals", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"proposals": proposals,
		"count":     len(proposals),
	}))
}

func (h *ProposalHandler) ListOwnProposals(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	proposals, err := h.proposalService.ListByProposer(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, "list proposals", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"proposals": proposals,
		"count":     len(proposals),
	}))
}

func (h *ProposalHandler) ListBids(c fiber.Ctx) error {
	proposalID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	bids, err := h.bidService.ListByProposal(c.Context(), proposalID)
	if err != nil {
		return respondServiceError(c, "list bids", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"bids":  bids,
		"count": len(bids),
	}))
}
