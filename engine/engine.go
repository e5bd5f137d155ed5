// Package engine reconstructs the relationships the upstream records API
// cannot be queried for. Each load fans out the required fetches in
// parallel, joins whatever the upstream nested into the subject's profile
// with the link indexes' view of the flat collections, and returns one
// consistent, role-scoped result set. Partial merges are never returned: if
// any fetch in the barrier fails, the whole load fails with that one error.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/careloop/backend/index"
	"github.com/careloop/backend/models"
	"go.uber.org/zap"
)

// ErrSuperseded is returned when a load settles after a newer load for the
// same subject has already been applied. The caller keeps its current view.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Fetcher is the slice of the upstream client the engine needs. Tests
// substitute a stub.
type Fetcher interface {
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	ListFeedback(ctx context.Context) ([]models.Feedback, error)
	ListVitals(ctx context.Context) ([]models.VitalRecord, error)
	ListHistory(ctx context.Context) ([]models.MedicalHistoryRecord, error)
}

type Engine struct {
	fetcher     Fetcher
	assignments *index.AssignmentIndex
	apptLinks   *index.AppointmentLinkIndex
	histLinks   *index.HistoryLinkIndex
	logger      *zap.Logger
	gate        seqGate
}

func NewEngine(
	fetcher Fetcher,
	assignments *index.AssignmentIndex,
	apptLinks *index.AppointmentLinkIndex,
	histLinks *index.HistoryLinkIndex,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		fetcher:     fetcher,
		assignments: assignments,
		apptLinks:   apptLinks,
		histLinks:   histLinks,
		logger:      logger,
	}
}

// seqGate orders overlapping loads of the same subject. Each load draws a
// sequence number when it starts; a load may only apply its result if no
// newer load for that subject has applied first. Without this, rapid
// refreshes race and whichever settles last wins regardless of issue order.
type seqGate struct {
	mu      sync.Mutex
	next    uint64
	applied map[string]uint64
}

func (g *seqGate) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

func (g *seqGate) commit(subject string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.applied == nil {
		g.applied = make(map[string]uint64)
	}
	if seq < g.applied[subject] {
		return false
	}
	g.applied[subject] = seq
	return true
}

// finish applies the gate to a completed load, translating a lost race
// into ErrSuperseded.
func (e *Engine) finish(subject string, seq uint64) error {
	if !e.gate.commit(subject, seq) {
		e.logger.Debug("discarding stale load result",
			zap.String("subject", subject),
			zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	return nil
}
