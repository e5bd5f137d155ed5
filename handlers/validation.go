package handlers

import (
	"regexp"

	"github.com/careloop/backend/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Input shape checks happen here, before any upstream call; a violation
// never reaches the engine or the indexes.

var bloodPressureRe = regexp.MustCompile(`^\d{2,3}/\d{2,3}$`)

type CreateAppointmentRequest struct {
	PatientID string `json:"patientId" validate:"required"`
	DoctorID  string `json:"doctorId" validate:"required"`
	VisitTime string `json:"visitTime" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateHistoryRequest struct {
	Condition  string `json:"condition" validate:"required"`
	Notes      string `json:"notes,omitempty"`
	RecordedAt string `json:"recordedAt,omitempty"`
}

type CreateVitalsRequest struct {
	HeartRate     int     `json:"heartRate" validate:"required,min=20,max=250"`
	BloodPressure string  `json:"bloodPressure" validate:"required"`
	OxygenLevel   float64 `json:"oxygenLevel" validate:"omitempty,min=0,max=100"`
	Temperature   float64 `json:"temperature" validate:"omitempty,min=25,max=45"`
	RecordedAt    string  `json:"recordedAt,omitempty"`
}

type CreateFeedbackRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required"`
	Response      string `json:"response" validate:"required"`
	Rating        *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

type RegisterPatientRequest struct {
	Name    string `json:"name" validate:"required"`
	Age     int    `json:"age" validate:"required,min=0,max=130"`
	Contact string `json:"contact" validate:"required"`
	// DoctorID is optional; registration falls back to the first doctor in
	// the list so every patient ends up with a definite assignment.
	DoctorID string `json:"doctorId,omitempty"`
}

type AssignDoctorRequest struct {
	DoctorID string `json:"doctorId" validate:"required"`
}

type CreateAdmissionRequest struct {
	Name      string `json:"name" validate:"required"`
	Age       int    `json:"age" validate:"required,min=0,max=130"`
	Contact   string `json:"contact" validate:"required"`
	Condition string `json:"condition" validate:"required"`
}

type UpdateAdmissionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// checkInput validates req and, on violation, writes the 400 response
// itself. Callers stop when handled is true.
func checkInput(c *fiber.Ctx, validate *validator.Validate, req interface{}) (handled bool, err error) {
	verr := validate.Struct(req)
	if verr == nil {
		switch r := req.(type) {
		case *CreateVitalsRequest:
			if !bloodPressureRe.MatchString(r.BloodPressure) {
				return true, c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse(
					"validation", "invalid input",
					fieldError{Field: "bloodPressure", Reason: "must look like 120/80"}))
			}
		case *UpdateAppointmentStatusRequest:
			if !models.ValidStatus(r.Status) {
				return true, c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse(
					"validation", "invalid input",
					fieldError{Field: "status", Reason: "unknown appointment status"}))
			}
		case *UpdateAdmissionStatusRequest:
			if !models.ValidAdmissionStatus(r.Status) {
				return true, c.Status(fiber.StatusBadRequest).JSON(NewErrorResponse(
					"validation", "invalid input",
					fieldError{Field: "status", Reason: "unknown admission status"}))
			}
		}
		return false, nil
	}

	invalid, ok := verr.(validator.ValidationErrors)
	if !ok {
		return true, c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse("validation", "invalid input"))
	}

	details := make([]fieldError, 0, len(invalid))
	for _, fe := range invalid {
		details = append(details, fieldError{
			Field:  fe.Field(),
			Reason: "failed " + fe.Tag() + " check",
		})
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(
		NewErrorResponse("validation", "invalid input", details))
}
