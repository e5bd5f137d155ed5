package handlers

import (
	"github.com/careloop/backend/engine"
	"github.com/careloop/backend/remote"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Structured Error Responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func NewErrorResponse(code string, message string, details ...any) ErrorResponse {
	var detail any
	if len(details) > 0 {
		detail = details
	}
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: detail,
	}
}

// renderError maps a load or submit failure onto one response. Upstream
// failures surface their resolved message; a superseded load tells the
// client to keep its current view; anything else is a plain 500.
func renderError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if errors.Is(err, engine.ErrSuperseded) {
		return c.Status(fiber.StatusConflict).JSON(
			NewErrorResponse("superseded", "a newer load was already applied; keep the current view"))
	}

	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		logger.Warn("upstream failure surfaced to client",
			zap.Int("upstreamStatus", apiErr.Status),
			zap.String("message", apiErr.Message))
		return c.Status(fiber.StatusBadGateway).JSON(
			NewErrorResponse("upstream_failure", apiErr.Message))
	}

	logger.Error("unexpected failure", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(
		NewErrorResponse("internal", "internal error"))
}
