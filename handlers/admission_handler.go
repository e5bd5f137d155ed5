// admissions applications handler
package handlers

import (
	"time"

	"github.com/careloop/backend/models"
	"github.com/careloop/backend/remote"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdmissionHandler is a thin passthrough for admission applications; the
// upstream owns them entirely and no link index is involved.
type AdmissionHandler struct {
	logger   *zap.Logger
	remote   *remote.Client
	validate *validator.Validate
}

func NewAdmissionHandler(logger *zap.Logger, client *remote.Client) *AdmissionHandler {
	return &AdmissionHandler{
		logger:   logger,
		remote:   client,
		validate: validator.New(),
	}
}

func (h *AdmissionHandler) List(c *fiber.Ctx) error {
	admissions, err := h.remote.ListAdmissions(c.Context())
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"admissions": admissions})
}

func (h *AdmissionHandler) Create(c *fiber.Ctx) error {
	var req CreateAdmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	admission, err := h.remote.CreateAdmission(c.Context(), fiber.Map{
		"name":        req.Name,
		"age":         req.Age,
		"contact":     req.Contact,
		"condition":   req.Condition,
		"status":      models.AdmissionPending,
		"submittedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"admission": admission})
}

func (h *AdmissionHandler) UpdateStatus(c *fiber.Ctx) error {
	admissionID := models.NormalizeID(c.Params("id"))
	if admissionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "admission ID is required",
		})
	}

	var req UpdateAdmissionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	admission, err := h.remote.UpdateAdmission(c.Context(), admissionID, fiber.Map{
		"status": req.Status,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}

	h.logger.Info("admission status updated",
		zap.String("admissionID", admissionID),
		zap.String("status", req.Status))
	return c.JSON(fiber.Map{"admission": admission})
}
