package handlers

import (
	"errors"
	"log/slog"
	"marketplace-service/internal/httputil"
	"marketplace-service/internal/models"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
)

// parseIDParam parses a positive int64 route parameter.
func parseIDParam(c fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil && id > 0
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(
			httputil.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, models.ErrUnauthorized):
		return c.Status(http.StatusForbidden).JSON(
			httputil.CreateErrorResponse("FORBIDDEN", err.Error()))
	case errors.Is(err, models.ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(
			httputil.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	case errors.Is(err, models.ErrDuplicate):
		return c.Status(http.StatusConflict).JSON(
			httputil.CreateErrorResponse("DUPLICATE", err.Error()))
	case errors.Is(err, models.ErrInvalidState):
		return c.Status(http.StatusConflict).JSON(
			httputil.CreateErrorResponse("INVALID_STATE", err.Error()))
	case errors.Is(err, models.ErrExpired):
		return c.Status(http.StatusGone).JSON(
			httputil.CreateErrorResponse("EXPIRED", err.Error()))
	default:
		slog.Error("Request failed", "action", action, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			httputil.CreateErrorResponse("INTERNAL_ERROR", "Failed to "+action))
	}
}
