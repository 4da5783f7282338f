package handlers

import (
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

type ContractHandler struct {
	contractService *services.ContractService
}

func NewContractHandler(contractService *services.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func (h *ContractHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/contracts")

	group.Post("/accept-bid", h.AcceptBid) // POST /contracts/accept-bid
	group.Get("/mine", h.ListOwnContracts) // GET  /contracts/mine
	group.Get("/:id", h.GetContract)       // GET  /contracts/:id
}

// AcceptBid finalizes a proposal against one of its bids and creates the
// contract.
func (h *ContractHandler) AcceptBid(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.AcceptBidRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	contract, err := h.contractService.AcceptBid(c.Context(), userID, req)
	if err != nil {
		return respondServiceError(c, "accept bid", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(contract))
}

func (h *ContractHandler) GetContract(c fiber.Ctx) error {
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	contract, err := h.contractService.GetContract(c.Context(), contractID)
	if err != nil {
		return respondServiceError(c, "get contract", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(contract))
}

func (h *ContractHandler) ListOwnContracts(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	contracts, err := h.contractService.ListByParty(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, "list contracts", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"contracts": contracts,
		"count":     len(contracts),
	}))
}
