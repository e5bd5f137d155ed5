// patient dashboard handler
package handlers

import (
	"time"

	"github.com/careloop/backend/engine"
	"github.com/careloop/backend/models"
	"github.com/careloop/backend/remote"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PatientHandler struct {
	logger   *zap.Logger
	engine   *engine.Engine
	remote   *remote.Client
	validate *validator.Validate
}

func NewPatientHandler(logger *zap.Logger, eng *engine.Engine, client *remote.Client) *PatientHandler {
	return &PatientHandler{
		logger:   logger,
		engine:   eng,
		remote:   client,
		validate: validator.New(),
	}
}

func subjectID(c *fiber.Ctx) (string, bool) {
	id := models.NormalizeID(c.Params("id"))
	return id, id != ""
}

// GetAppointments returns the patient's reconciled appointment list.
func (h *PatientHandler) GetAppointments(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	views, err := h.engine.LoadPatientAppointments(c.Context(), patientID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"appointments": views})
}

func (h *PatientHandler) GetHistory(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	records, err := h.engine.LoadPatientHistory(c.Context(), patientID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"history": records})
}

func (h *PatientHandler) GetVitals(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	vitals, err := h.engine.LoadPatientVitals(c.Context(), patientID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"vitals": vitals})
}

func (h *PatientHandler) GetFeedback(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	feedback, err := h.engine.LoadPatientFeedback(c.Context(), patientID)
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"feedback": feedback})
}

// Register creates the patient upstream and records the doctor assignment.
// When no doctor was chosen the first doctor in the list is assigned, so
// every registered patient has a definite, if arbitrary, doctor.
func (h *PatientHandler) Register(c *fiber.Ctx) error {
	var req RegisterPatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	doctorID := models.NormalizeID(req.DoctorID)
	if doctorID == "" {
		doctors, err := h.remote.ListDoctors(c.Context())
		if err != nil {
			return renderError(c, h.logger, err)
		}
		if id, ok := engine.DefaultDoctor(doctors); ok {
			doctorID = string(id)
		}
	}

	patient, err := h.remote.CreatePatient(c.Context(), fiber.Map{
		"name":    req.Name,
		"age":     req.Age,
		"contact": req.Contact,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}

	if doctorID != "" {
		if err := h.engine.RecordAssignment(c.Context(), string(patient.ID), doctorID); err != nil {
			h.logger.Error("failed to record assignment for new patient",
				zap.String("patientID", string(patient.ID)),
				zap.String("doctorID", doctorID),
				zap.Error(err))
		}
	}

	h.logger.Info("patient registered",
		zap.String("patientID", string(patient.ID)),
		zap.String("doctorID", doctorID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"patient":  patient,
		"doctorId": doctorID,
	})
}

// AssignDoctor reassigns the patient. The assignment index is overwritten,
// never merged.
func (h *PatientHandler) AssignDoctor(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	var req AssignDoctorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	if err := h.engine.RecordAssignment(c.Context(), patientID, req.DoctorID); err != nil {
		return renderError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"patientId": patientID, "doctorId": models.NormalizeID(req.DoctorID)})
}

// DeletePatient removes the patient upstream and clears its assignment.
func (h *PatientHandler) DeletePatient(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	if err := h.remote.DeletePatient(c.Context(), patientID); err != nil {
		return renderError(c, h.logger, err)
	}
	if err := h.engine.RemoveAssignment(c.Context(), patientID); err != nil {
		h.logger.Error("failed to clear assignment for deleted patient",
			zap.String("patientID", patientID),
			zap.Error(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateAppointment books an appointment and links it to its owners the
// moment the upstream hands back the id.
func (h *PatientHandler) CreateAppointment(c *fiber.Ctx) error {
	var req CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	appt, err := h.remote.CreateAppointment(c.Context(), fiber.Map{
		"visitTime": req.VisitTime,
		"status":    models.StatusScheduled,
		"reason":    req.Reason,
		"patient":   fiber.Map{"id": models.NormalizeID(req.PatientID)},
		"doctor":    fiber.Map{"id": models.NormalizeID(req.DoctorID)},
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}

	if err := h.engine.RecordAppointmentCreated(c.Context(), string(appt.ID), req.PatientID, req.DoctorID); err != nil {
		h.logger.Error("appointment created upstream but link write failed",
			zap.String("appointmentID", string(appt.ID)),
			zap.Error(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appt})
}

// DeleteAppointment removes the appointment and its link entry in the same
// logical operation.
func (h *PatientHandler) DeleteAppointment(c *fiber.Ctx) error {
	appointmentID := models.NormalizeID(c.Params("id"))
	if appointmentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "appointment ID is required",
		})
	}

	if err := h.remote.DeleteAppointment(c.Context(), appointmentID); err != nil {
		return renderError(c, h.logger, err)
	}
	if err := h.engine.RecordAppointmentDeleted(c.Context(), appointmentID); err != nil {
		h.logger.Error("appointment deleted upstream but link removal failed",
			zap.String("appointmentID", appointmentID),
			zap.Error(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PatientHandler) CreateHistory(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	var req CreateHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	recordedAt := req.RecordedAt
	if recordedAt == "" {
		recordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	record, err := h.remote.CreateHistory(c.Context(), fiber.Map{
		"patientId":  patientID,
		"condition":  req.Condition,
		"notes":      req.Notes,
		"recordedAt": recordedAt,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}

	if err := h.engine.RecordHistoryCreated(c.Context(), patientID, string(record.ID)); err != nil {
		h.logger.Error("history created upstream but link write failed",
			zap.String("patientID", patientID),
			zap.String("historyID", string(record.ID)),
			zap.Error(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"record": record})
}

func (h *PatientHandler) DeleteHistory(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}
	historyID := models.NormalizeID(c.Params("historyID"))
	if historyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "history ID is required",
		})
	}

	if err := h.remote.DeleteHistory(c.Context(), historyID); err != nil {
		return renderError(c, h.logger, err)
	}
	if err := h.engine.RecordHistoryDeleted(c.Context(), patientID, historyID); err != nil {
		h.logger.Error("history deleted upstream but link removal failed",
			zap.String("patientID", patientID),
			zap.String("historyID", historyID),
			zap.Error(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PatientHandler) CreateVitals(c *fiber.Ctx) error {
	patientID, ok := subjectID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "patient ID is required",
		})
	}

	var req CreateVitalsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	recordedAt := req.RecordedAt
	if recordedAt == "" {
		recordedAt = time.Now().UTC().Format(time.RFC3339)
	}

	vital, err := h.remote.CreateVital(c.Context(), fiber.Map{
		"patientId":     patientID,
		"heartRate":     req.HeartRate,
		"bloodPressure": req.BloodPressure,
		"oxygenLevel":   req.OxygenLevel,
		"temperature":   req.Temperature,
		"recordedAt":    recordedAt,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"vital": vital})
}

func (h *PatientHandler) CreateFeedback(c *fiber.Ctx) error {
	var req CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if handled, err := checkInput(c, h.validate, &req); handled {
		return err
	}

	feedback, err := h.remote.CreateFeedback(c.Context(), fiber.Map{
		"appointmentId": models.NormalizeID(req.AppointmentID),
		"response":      req.Response,
		"rating":        req.Rating,
	})
	if err != nil {
		return renderError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"feedback": feedback})
}
