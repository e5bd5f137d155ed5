package engine

import (
	"context"

	"github.com/careloop/backend/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadPatientHistory reconciles a patient's medical history from the
// profile's embedded records, the flat collection and the history-link
// index. On a freshly seeded deployment with a single patient and no links
// yet, every history record is adopted for that patient and the links are
// written back so future loads take the normal path.
func (e *Engine) LoadPatientHistory(ctx context.Context, patientID string) ([]models.MedicalHistoryRecord, error) {
	pid := models.NormalizeID(patientID)
	subject := "patient-history:" + pid
	seq := e.gate.begin()

	var (
		patient  *models.Patient
		history  []models.MedicalHistoryRecord
		patients []models.Patient
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patient, err = e.fetcher.GetPatient(gctx, pid)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = e.fetcher.ListHistory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		patients, err = e.fetcher.ListPatients(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "reconciling patient history")
	}

	linkIDs := make(map[string]bool)
	for _, id := range e.histLinks.IDsForPatient(ctx, pid) {
		linkIDs[id] = true
	}
	linkMatched := filterByIDSet(history, linkIDs, historyID)

	adopted, byAdoption := adoptAllForSolePatient(linkMatched, history, len(patients))

	merged := mergeByID(patient.MedicalHistory, adopted, historyID)
	sortNewestFirst(merged, historyTime)

	// A superseded load must stay read-only, so the adopted links are only
	// written back once the gate confirms this result will be applied.
	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}

	if byAdoption && len(adopted) > 0 {
		e.logger.Info("adopting all history records for sole patient",
			zap.String("patientID", pid),
			zap.Int("records", len(adopted)))
		for _, rec := range adopted {
			if err := e.histLinks.AddLink(ctx, pid, string(rec.ID)); err != nil {
				e.logger.Warn("failed to persist adopted history link",
					zap.String("patientID", pid),
					zap.String("historyID", string(rec.ID)),
					zap.Error(err))
			}
		}
	}
	return merged, nil
}

// LoadPatientVitals returns the vitals recorded for a patient. Vitals have
// no dedicated link index: the patient reference is either embedded on the
// record or inferred by the sole-patient rule.
func (e *Engine) LoadPatientVitals(ctx context.Context, patientID string) ([]models.VitalRecord, error) {
	pid := models.NormalizeID(patientID)
	subject := "patient-vitals:" + pid
	seq := e.gate.begin()

	var (
		vitals   []models.VitalRecord
		patients []models.Patient
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vitals, err = e.fetcher.ListVitals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		patients, err = e.fetcher.ListPatients(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "reconciling patient vitals")
	}

	var matched []models.VitalRecord
	for _, v := range vitals {
		if models.NormalizeID(string(v.PatientID)) == pid {
			matched = append(matched, v)
		}
	}

	adopted, byAdoption := adoptAllForSolePatient(matched, vitals, len(patients))
	if byAdoption && len(adopted) > 0 {
		e.logger.Info("adopting all vital records for sole patient",
			zap.String("patientID", pid),
			zap.Int("records", len(adopted)))
	}

	sortNewestFirst(adopted, vitalTime)

	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return adopted, nil
}

func historyID(r models.MedicalHistoryRecord) models.ID {
	return r.ID
}

func historyTime(r models.MedicalHistoryRecord) models.FlexTime {
	return r.RecordedAt
}

func vitalTime(v models.VitalRecord) models.FlexTime {
	return v.RecordedAt
}
