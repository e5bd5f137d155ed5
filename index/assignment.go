package index

import (
	"context"
	"sort"
	"sync"

	"github.com/careloop/backend/models"
	"github.com/careloop/backend/store"
	"go.uber.org/zap"
)

// AssignmentIndex maps each patient to their assigned doctor. Single-valued
// per patient; assignment changes overwrite, they are never merged.
type AssignmentIndex struct {
	store  store.Store
	logger *zap.Logger
	mu     sync.Mutex
}

func NewAssignmentIndex(st store.Store, logger *zap.Logger) *AssignmentIndex {
	return &AssignmentIndex{
		store:  st,
		logger: logger,
	}
}

func (ix *AssignmentIndex) load(ctx context.Context) map[string]string {
	return loadMap[string](ctx, ix.store, assignmentsKey, ix.logger)
}

// AssignedDoctor returns the doctor assigned to patientID, if any.
func (ix *AssignmentIndex) AssignedDoctor(ctx context.Context, patientID string) (string, bool) {
	pid := models.NormalizeID(patientID)
	if pid == "" {
		return "", false
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	doctorID, ok := ix.load(ctx)[pid]
	return doctorID, ok
}

// SetAssignedDoctor records the assignment, replacing any previous doctor
// for the patient.
func (ix *AssignmentIndex) SetAssignedDoctor(ctx context.Context, patientID, doctorID string) error {
	pid := models.NormalizeID(patientID)
	did := models.NormalizeID(doctorID)
	if pid == "" || did == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	assignments := ix.load(ctx)
	assignments[pid] = did
	return ix.store.Write(ctx, assignmentsKey, assignments)
}

func (ix *AssignmentIndex) RemoveAssignment(ctx context.Context, patientID string) error {
	pid := models.NormalizeID(patientID)
	if pid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	assignments := ix.load(ctx)
	if _, ok := assignments[pid]; !ok {
		return nil
	}
	delete(assignments, pid)
	return ix.store.Write(ctx, assignmentsKey, assignments)
}

// AssignedPatients scans the whole index for patients assigned to doctorID.
// Results are sorted so callers get a stable order.
func (ix *AssignmentIndex) AssignedPatients(ctx context.Context, doctorID string) []string {
	did := models.NormalizeID(doctorID)
	if did == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var patients []string
	for pid, assigned := range ix.load(ctx) {
		if models.NormalizeID(assigned) == did {
			patients = append(patients, pid)
		}
	}
	sort.Strings(patients)
	return patients
}
