package engine

import (
	"context"

	"github.com/careloop/backend/models"
	"github.com/pkg/errors"
)

// LoadDoctorAssignedPatients returns the patients assigned to a doctor,
// unioning the assignment index with whatever assignment the upstream
// embedded on the patient records themselves. Fetch order is preserved.
func (e *Engine) LoadDoctorAssignedPatients(ctx context.Context, doctorID string) ([]models.Patient, error) {
	did := models.NormalizeID(doctorID)
	subject := "doctor-patients:" + did
	seq := e.gate.begin()

	patients, err := e.fetcher.ListPatients(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reconciling assigned patients")
	}

	assigned := make(map[string]bool)
	for _, pid := range e.assignments.AssignedPatients(ctx, did) {
		assigned[pid] = true
	}

	var out []models.Patient
	for _, p := range patients {
		pid := models.NormalizeID(string(p.ID))
		if assigned[pid] || models.NormalizeID(string(p.DoctorID)) == did {
			out = append(out, p)
		}
	}

	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return out, nil
}
