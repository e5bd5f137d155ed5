// doctor dashboard handler
package handlers

import (
	"github.com/careloop/backend/engine"
	"github.com/careloop/backend/models"
	"github.com/careloop/backend/remote"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// unknownPatientLabel is shown when neither the embedded reference nor the
// link index can name the patient an appointment belongs to.
const unknownPatientLabel = "Unknown"

type DoctorHandler struct {
	logger   *zap.Logger
	engine   *engine.Engine
	remote   *remote.Client
	validate *validator.Validate
}

func NewDoctorHandler(logger *zap.Logger, eng *engine.Engine, client *remote.Client) *DoctorHandler {
	return &DoctorHandler{
		logger:   logger,
		engine:   eng,
		remote:   client,
		validate: validator.New(),
	}
}

type doctorAppointmentView struct {
	engine.AppointmentView
	PatientName string `json:"patientName"`
}

// GetAppointments returns the doctor's reconciled appointments, each
// labeled with the patient it belongs to or "Unknown".
func (h *DoctorHandler) GetAppointments(c *fiber.Ctx) error {
	doctorID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "doctor ID is required",
		})
	}

	views, err := h.engine.LoadDoctorAppointments(c.Context(), doctorID)
	if err != nil {
		return renderError(c, h.logger, err)
	}

	out := make([]doctorAppointmentView, 0, len(views))
	for _, v := range views {
		name := unknownPatientLabel
		if v.ResolvedPatient != nil && v.ResolvedPatient.Name != "" {
			name = v.ResolvedPatient.Name
		}
		out = append(out, doctorAppointmentView{AppointmentView: v, PatientName: name})
	}
	return c.JSON(fiber.Map{"appointments": out})
}

func (h *DoctorHandler) GetAssignedPatients(c *fiber.Ctx) error {
	doctorID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "doctor ID is required",
		})
	}

	patients, err := h.engine.LoadDoctorAssignedPatients(c.Context(), doctorID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"patients": patients})
}

func (h *DoctorHandler) GetFeedback(c *fiber.Ctx) error {
	doctorID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "doctor ID is required",
		})
	}

	feedback, err := h.engine.LoadDoctorFeedback(c.Context(), doctorID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"feedback": feedback})
}

// ListDoctors is the flat doctor list the registration form's selector
// uses; its order decides the default assignment.
func (h *DoctorHandler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.remote.ListDoctors(c.Context())
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"doctors": doctors})
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
func (h *DoctorHandler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	appointmentID := models.NormalizeID(c.Params("id"))
	if appointmentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "appointment ID is required",
		})
	}

	var req UpdateAppointmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	appt, err := h.remote.UpdateAppointment(c.Context(), appointmentID, fiber.Map{
		"status": req.Status,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}

	h.logger.Info("appointment status updated",
		zap.String("appointmentID", appointmentID),
		zap.String("status", req.Status))
	return c.JSON(fiber.Map{"appointment": appt})
}
