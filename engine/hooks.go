package engine

import (
	"context"

	"go.uber.org/zap"
)

// Mutation-time link hooks. Dashboards call these in the same logical
// operation as the upstream write so the indexes track entity lifecycle.

// RecordAppointmentCreated stores the owner pair for a freshly created
// appointment, right after the upstream confirms it and returns the id.
func (e *Engine) RecordAppointmentCreated(ctx context.Context, appointmentID, patientID, doctorID string) error {
	e.logger.Debug("linking appointment",
		zap.String("appointmentID", appointmentID),
		zap.String("patientID", patientID),
		zap.String("doctorID", doctorID))
	return e.apptLinks.SetLink(ctx, appointmentID, patientID, doctorID)
}

func (e *Engine) RecordAppointmentDeleted(ctx context.Context, appointmentID string) error {
	return e.apptLinks.RemoveLink(ctx, appointmentID)
}

func (e *Engine) RecordHistoryCreated(ctx context.Context, patientID, historyID string) error {
	return e.histLinks.AddLink(ctx, patientID, historyID)
}

func (e *Engine) RecordHistoryDeleted(ctx context.Context, patientID, historyID string) error {
	return e.histLinks.RemoveLink(ctx, patientID, historyID)
}

// RecordAssignment overwrites the patient's assigned doctor. Assignments
// are last-write-wins, never merged.
func (e *Engine) RecordAssignment(ctx context.Context, patientID, doctorID string) error {
	e.logger.Debug("recording assignment",
		zap.String("patientID", patientID),
		zap.String("doctorID", doctorID))
	return e.assignments.SetAssignedDoctor(ctx, patientID, doctorID)
}

// RemoveAssignment clears the patient's assignment, used when the patient
// record itself is deleted.
func (e *Engine) RemoveAssignment(ctx context.Context, patientID string) error {
	return e.assignments.RemoveAssignment(ctx, patientID)
}
