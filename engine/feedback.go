package engine

import (
	"context"

	"github.com/careloop/backend/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// LoadPatientFeedback returns the feedback visible to a patient: exactly
// the feedback whose appointment is in the patient's reconciled
// appointment set.
func (e *Engine) LoadPatientFeedback(ctx context.Context, patientID string) ([]models.Feedback, error) {
	pid := models.NormalizeID(patientID)
	subject := "patient-feedback:" + pid
	seq := e.gate.begin()

	visible, err := e.loadFeedback(ctx, func(gctx context.Context) ([]AppointmentView, error) {
		return e.reconcilePatientAppointments(gctx, pid)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reconciling patient feedback")
	}

	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return visible, nil
}

// LoadDoctorFeedback returns the feedback visible to a doctor under the
// same appointment-membership rule.
func (e *Engine) LoadDoctorFeedback(ctx context.Context, doctorID string) ([]models.Feedback, error) {
	did := models.NormalizeID(doctorID)
	subject := "doctor-feedback:" + did
	seq := e.gate.begin()

	visible, err := e.loadFeedback(ctx, func(gctx context.Context) ([]AppointmentView, error) {
		return e.reconcileDoctorAppointments(gctx, did)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reconciling doctor feedback")
	}

	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return visible, nil
}

func (e *Engine) loadFeedback(ctx context.Context, reconcile func(context.Context) ([]AppointmentView, error)) ([]models.Feedback, error) {
	var (
		views    []AppointmentView
		feedback []models.Feedback
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = reconcile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = e.fetcher.ListFeedback(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	appointmentIDs := make(map[string]bool, len(views))
	for _, v := range views {
		appointmentIDs[models.NormalizeID(string(v.ID))] = true
	}
	return visibleFeedback(feedback, appointmentIDs), nil
}
