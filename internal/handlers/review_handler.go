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

type ReviewHandler struct {
	reviewService *services.ReviewService
	minioClient   *minio.MinioClient
}

func NewReviewHandler(reviewService *services.ReviewService, minioClient *minio.MinioClient) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		minioClient:   minioClient,
	}
}

func (h *ReviewHandler) Register(app *fiber.App) {
	group := app.Group("marketplace/api/v1/contracts/:id/review")

	group.Post("/", h.SubmitReview)           // POST   /contracts/:id/review
	group.Get("/", h.GetReview)               // GET    /contracts/:id/review
	group.Put("/", h.ModifyReview)            // PUT    /contracts/:id/review
	group.Delete("/", h.DeleteReview)         // DELETE /contracts/:id/review
	group.Post("/attachment", h.UploadAttachment) // POST /contracts/:id/review/attachment (multipart)
	group.Post("/report", h.ReportReview)     // POST   /contracts/:id/review/report
	group.Post("/resolve", h.ResolveReport)   // POST   /contracts/:id/review/resolve (admin)
}

// SubmitReview records the contract holder's review.
func (h *ReviewHandler) SubmitReview(c fiber.Ctx) error {
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

	var req models.SubmitReviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	review, err := h.reviewService.SubmitReview(c.Context(), userID, contractID, req)
	if err != nil {
		return respondServiceError(c, "submit review", err)
	}
	return c.Status(http.StatusCreated).JSON(httputil.CreateSuccessResponse(review))
}

// ModifyReview updates the caller's own review.
func (h *ReviewHandler) ModifyReview(c fiber.Ctx) error {
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

	var req models.ModifyReviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	review, err := h.reviewService.ModifyReview(c.Context(), userID, contractID, req)
	if err != nil {
		return respondServiceError(c, "modify review", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(review))
}

// DeleteReview tombstones the caller's own review.
func (h *ReviewHandler) DeleteReview(c fiber.Ctx) error {
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

	if err := h.reviewService.DeleteReview(c.Context(), userID, contractID); err != nil {
		return respondServiceError(c, "delete review", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(map[string]any{
		"contract_id": contractID,
		"deleted":     true,
	}))
}

// UploadAttachment stores an uploaded file in the review-evidence bucket and
// appends its URL to the review's supplemental information.
func (h *ReviewHandler) UploadAttachment(c fiber.Ctx) error {
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

	if h.minioClient == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			httputil.CreateErrorResponse("STORAGE_UNAVAILABLE", "Attachment storage is not configured"))
	}

	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("VALIDATION_FAILED", "No attachment file provided"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_FILE", "Failed to read uploaded file"))
	}
	defer file.Close()

	objectName := fmt.Sprintf("contract-%d/%s%s", contractID, uuid.New().String(), filepath.Ext(fileHeader.Filename))
	url, err := h.minioClient.UploadFile(c.Context(), minio.Storage.ReviewEvidence, objectName,
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return respondServiceError(c, "upload review attachment", err)
	}

	review, err := h.reviewService.AttachSupplement(c.Context(), userID, contractID, url)
	if err != nil {
		return respondServiceError(c, "attach review supplement", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(review))
}

// ReportReview flags a review for moderation.
func (h *ReviewHandler) ReportReview(c fiber.Ctx) error {
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

	var req models.ReportReviewRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	review, err := h.reviewService.ReportReview(c.Context(), userID, contractID, req.Reason)
	if err != nil {
		return respondServiceError(c, "report review", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(review))
}

// ResolveReport closes a report. Administrator only.
func (h *ReviewHandler) ResolveReport(c fiber.Ctx) error {
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

	var req models.ResolveReportRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	review, err := h.reviewService.ResolveReport(c.Context(), userID, contractID, req.Uphold)
	if err != nil {
		return respondServiceError(c, "resolve report", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(review))
}

func (h *ReviewHandler) GetReview(c fiber.Ctx) error {
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("INVALID_ID", "Invalid id format"))
	}

	review, err := h.reviewService.GetReview(c.Context(), contractID)
	if err != nil {
		return respondServiceError(c, "get review", err)
	}
	return c.Status(http.StatusOK).JSON(httputil.CreateSuccessResponse(review))
}
