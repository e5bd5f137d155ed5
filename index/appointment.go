package index

import (
	"context"
	"sync"

	"github.com/careloop/backend/models"
	"github.com/careloop/backend/store"
	"go.uber.org/zap"
)

// AppointmentLinkIndex maps each appointment to the patient/doctor pair it
// was created for. The link is written once, right after the upstream
// confirms the appointment and hands back its id, because the upstream does
// not guarantee it returns the association on later fetches.
type AppointmentLinkIndex struct {
	store  store.Store
	logger *zap.Logger
	mu     sync.Mutex
}

func NewAppointmentLinkIndex(st store.Store, logger *zap.Logger) *AppointmentLinkIndex {
	return &AppointmentLinkIndex{
		store:  st,
		logger: logger,
	}
}

func (ix *AppointmentLinkIndex) load(ctx context.Context) map[string]models.AppointmentLink {
	return loadMap[models.AppointmentLink](ctx, ix.store, appointmentLinkKey, ix.logger)
}

func (ix *AppointmentLinkIndex) SetLink(ctx context.Context, appointmentID, patientID, doctorID string) error {
	aid := models.NormalizeID(appointmentID)
	if aid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	links := ix.load(ctx)
	links[aid] = models.AppointmentLink{
		PatientID: models.NormalizeID(patientID),
		DoctorID:  models.NormalizeID(doctorID),
	}
	return ix.store.Write(ctx, appointmentLinkKey, links)
}

func (ix *AppointmentLinkIndex) Link(ctx context.Context, appointmentID string) (models.AppointmentLink, bool) {
	aid := models.NormalizeID(appointmentID)
	if aid == "" {
		return models.AppointmentLink{}, false
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	link, ok := ix.load(ctx)[aid]
	return link, ok
}

// IDsForPatient scans the index for every appointment linked to patientID.
func (ix *AppointmentLinkIndex) IDsForPatient(ctx context.Context, patientID string) map[string]bool {
	return ix.scan(ctx, models.NormalizeID(patientID), func(l models.AppointmentLink) string {
		return l.PatientID
	})
}

// IDsForDoctor scans the index for every appointment linked to doctorID.
func (ix *AppointmentLinkIndex) IDsForDoctor(ctx context.Context, doctorID string) map[string]bool {
	return ix.scan(ctx, models.NormalizeID(doctorID), func(l models.AppointmentLink) string {
		return l.DoctorID
	})
}

func (ix *AppointmentLinkIndex) scan(ctx context.Context, want string, side func(models.AppointmentLink) string) map[string]bool {
	ids := make(map[string]bool)
	if want == "" {
		return ids
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for aid, link := range ix.load(ctx) {
		if models.NormalizeID(side(link)) == want {
			ids[aid] = true
		}
	}
	return ids
}

// RemoveLink drops the entry for a deleted appointment.
func (ix *AppointmentLinkIndex) RemoveLink(ctx context.Context, appointmentID string) error {
	aid := models.NormalizeID(appointmentID)
	if aid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	links := ix.load(ctx)
	if _, ok := links[aid]; !ok {
		return nil
	}
	delete(links, aid)
	return ix.store.Write(ctx, appointmentLinkKey, links)
}
