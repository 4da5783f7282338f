package handlers

import (
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

type PartyHandler struct {
	partyService *services.PartyService
}

func NewPartyHandler(partyService *services.PartyService) *PartyHandler {
	return &PartyHandler{partyService: partyService}
}

func (h *PartyHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/parties")

	group.Post("/insurers/register", h.RegisterInsurer) // POST /parties/insurers/register
	group.Get("/insurers", h.ListInsurers)              // GET  /parties/insurers
	group.Post("/oracles", h.RegisterOracle)            // POST /parties/oracles (admin)
	group.Get("/oracles", h.ListOracles)                // GET  /parties/oracles
	group.Get("/:id", h.GetParty)                       // GET  /parties/:id
}

// RegisterInsurer registers the caller as an insurance company.
func (h *PartyHandler) RegisterInsurer(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	party, err := h.partyService.RegisterInsurer(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, "register insurer", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(party))
}

// RegisterOracle registers an oracle identity. Administrator only.
func (h *PartyHandler) RegisterOracle(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.RegisterOracleRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	party, err := h.partyService.RegisterOracle(c.Context(), userID, req.OracleID)
	if err != nil {
		return respondServiceError(c, "register oracle", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(party))
}

func (h *PartyHandler) GetParty(c fiber.Ctx) error {
	party, err := h.partyService.GetParty(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, "get party", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(party))
}

func (h *PartyHandler) ListOracles(c fiber.Ctx) error {
	oracles, err := h.partyService.ListOracles(c.Context())
	if err != nil {
		return respondServiceError(c, "list oracles", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"parties": oracles,
		"count":   len(oracles),
	}))
}

func (h *PartyHandler) ListInsurers(c fiber.Ctx) error {
	insurers, err := h.partyService.ListInsurers(c.Context())
	if err != nil {
		return respondServiceError(c, "list insurers", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"parties": insurers,
		"count":   len(insurers),
	}))
}
