package handlers

import (
	"fmt"
	"marketplace-service/internal/database/minio"
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ClaimHandler struct {
	claimService *services.ClaimService
	minioClient  *minio.MinioClient
}

func NewClaimHandler(claimService *services.ClaimService, minioClient *minio.MinioClient) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		minioClient:  minioClient,
	}
}

func (h *ClaimHandler) Register(app *fiber.App) {
	contractGroup := app.Group("marketplace/api/v1/contracts")
	contractGroup.Post("/:id/claims", h.SubmitClaim)       // POST /contracts/:id/claims
	contractGroup.Get("/:id/claims/latest", h.GetLatestClaim) // GET /contracts/:id/claims/latest

	claimGroup := app.Group("marketplace/api/v1/claims")
	claimGroup.Get("/:id", h.GetClaimInfo)            // GET  /claims/:id
	claimGroup.Post("/:id/oracles", h.AssignOracles)  // POST /claims/:id/oracles (admin)
	claimGroup.Post("/:id/verify", h.SubmitVerification) // POST /claims/:id/verify (oracle)
	claimGroup.Post("/:id/evidence", h.UploadEvidence) // POST /claims/:id/evidence (multipart)
}

// SubmitClaim files a payout request against an active contract.
func (h *ClaimHandler) SubmitClaim(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	var req models.SubmitClaimRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	claim, err := h.claimService.SubmitClaim(c.Context(), userID, contractID, req)
	if err != nil {
		return respondServiceError(c, "submit claim", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(claim))
}

// AssignOracles sets the verification panel for a claim. Administrator only.
func (h *ClaimHandler) AssignOracles(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	claimID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	var req models.AssignOraclesRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	claim, err := h.claimService.AssignOracles(c.Context(), userID, claimID, req.Oracles)
	if err != nil {
		return respondServiceError(c, "assign oracles", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(claim))
}

// SubmitVerification records the calling oracle's vote.
func (h *ClaimHandler) SubmitVerification(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	claimID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	var req models.OracleVoteRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	claim, err := h.claimService.SubmitVerification(c.Context(), userID, claimID, req)
	if err != nil {
		return respondServiceError(c, "submit verification", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(claim))
}

// GetClaimInfo returns the claim to the contract parties, the panel, or the
// administrator.
func (h *ClaimHandler) GetClaimInfo(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	claimID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	claim, err := h.claimService.GetClaimInfo(c.Context(), userID, claimID)
	if err != nil {
		return respondServiceError(c, "get claim", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(claim))
}

func (h *ClaimHandler) GetLatestClaim(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	claim, err := h.claimService.GetLatestByContract(c.Context(), userID, contractID)
	if err != nil {
		return respondServiceError(c, "get claim", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(claim))
}

// UploadEvidence stores uploaded files in the evidence bucket and attaches
// their URLs to the claim.
func (h *ClaimHandler) UploadEvidence(c fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			httputil.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}
	claimID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	if h.minioClient == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			httputil.CreateErrorResponse("STORAGE_UNAVAILABLE", "Evidence storage is not configured"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Multipart form is required"))
	}
	files := form.File["evidence"]
	if len(files) == 0 {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("VALIDATION_FAILED", "No evidence files provided"))
	}

	var urls []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				httputil.CreateErrorResponse("INVALID_FILE", "Failed to read uploaded file"))
		}

		objectName := fmt.Sprintf("claim-%d/%s%s", claimID, uuid.New().String(), filepath.Ext(fileHeader.Filename))
		url, err := h.minioClient.UploadFile(c.Context(), minio.Storage.ClaimEvidence, objectName,
			file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
		file.Close()
		if err != nil {
			return respondServiceError(c, "upload evidence", err)
		}
		urls = append(urls, url)
	}

	claim, err := h.claimService.AppendEvidence(c.Context(), userID, claimID, urls)
	if err != nil {
		return respondServiceError(c, "append evidence", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(claim))
}
