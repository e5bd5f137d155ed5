package engine

import (
	"context"

	"github.com/careloop/backend/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// AppointmentView is an appointment plus the counterpart the dashboard
// needs to name. A nil resolved reference means the relation could not be
// reconstructed from either the embedded data or the link index; the
// appointment stays in the list and the renderer shows a placeholder.
type AppointmentView struct {
	models.Appointment
	ResolvedPatient *models.PatientRef `json:"resolvedPatient,omitempty"`
	ResolvedDoctor  *models.DoctorRef  `json:"resolvedDoctor,omitempty"`
}

// LoadPatientAppointments reconciles the appointments belonging to one
// patient from the profile's embedded snapshot, the flat collection and the
// appointment-link index.
func (e *Engine) LoadPatientAppointments(ctx context.Context, patientID string) ([]AppointmentView, error) {
	pid := models.NormalizeID(patientID)
	subject := "patient-appointments:" + pid
	seq := e.gate.begin()

	views, err := e.reconcilePatientAppointments(ctx, pid)
	if err != nil {
		return nil, err
	}
	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return views, nil
}

func (e *Engine) reconcilePatientAppointments(ctx context.Context, pid string) ([]AppointmentView, error) {
	var (
		patient      *models.Patient
		appointments []models.Appointment
		doctors      []models.Doctor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patient, err = e.fetcher.GetPatient(gctx, pid)
		return err
	})
	g.Go(func() error {
		var err error
		appointments, err = e.fetcher.ListAppointments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		doctors, err = e.fetcher.ListDoctors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "reconciling patient appointments")
	}

	linkIDs := e.apptLinks.IDsForPatient(ctx, pid)
	merged := mergeByID(
		patient.Appointments,
		filterByIDSet(appointments, linkIDs, appointmentID),
		appointmentID,
	)
	sortNewestFirst(merged, appointmentTime)

	doctorsByID := make(map[string]models.Doctor, len(doctors))
	for _, d := range doctors {
		doctorsByID[models.NormalizeID(string(d.ID))] = d
	}

	views := make([]AppointmentView, 0, len(merged))
	for _, appt := range merged {
		views = append(views, AppointmentView{
			Appointment:    appt,
			ResolvedDoctor: e.resolveDoctor(ctx, appt, doctorsByID),
		})
	}
	return views, nil
}

// LoadDoctorAppointments reconciles a doctor's appointments and resolves
// which patient each belongs to, since the appointment object itself may
// omit it.
func (e *Engine) LoadDoctorAppointments(ctx context.Context, doctorID string) ([]AppointmentView, error) {
	did := models.NormalizeID(doctorID)
	subject := "doctor-appointments:" + did
	seq := e.gate.begin()

	views, err := e.reconcileDoctorAppointments(ctx, did)
	if err != nil {
		return nil, err
	}
	if err := e.finish(subject, seq); err != nil {
		return nil, err
	}
	return views, nil
}

func (e *Engine) reconcileDoctorAppointments(ctx context.Context, did string) ([]AppointmentView, error) {
	var (
		doctor       *models.Doctor
		appointments []models.Appointment
		patients     []models.Patient
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doctor, err = e.fetcher.GetDoctor(gctx, did)
		return err
	})
	g.Go(func() error {
		var err error
		appointments, err = e.fetcher.ListAppointments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		patients, err = e.fetcher.ListPatients(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "reconciling doctor appointments")
	}

	linkIDs := e.apptLinks.IDsForDoctor(ctx, did)
	merged := mergeByID(
		doctor.Appointments,
		filterByIDSet(appointments, linkIDs, appointmentID),
		appointmentID,
	)
	sortNewestFirst(merged, appointmentTime)

	patientsByID := make(map[string]models.Patient, len(patients))
	for _, p := range patients {
		patientsByID[models.NormalizeID(string(p.ID))] = p
	}

	views := make([]AppointmentView, 0, len(merged))
	for _, appt := range merged {
		views = append(views, AppointmentView{
			Appointment:     appt,
			ResolvedPatient: e.resolvePatient(ctx, appt, patientsByID),
		})
	}
	return views, nil
}

// resolvePatient finds the patient an appointment belongs to, preferring
// the embedded reference, then the link index. A dangling link (the patient
// is gone from the current fetch) still resolves to the bare id so the
// renderer can label it unknown rather than dropping the appointment.
func (e *Engine) resolvePatient(ctx context.Context, appt models.Appointment, patientsByID map[string]models.Patient) *models.PatientRef {
	if appt.Patient != nil && !appt.Patient.ID.IsZero() {
		return appt.Patient
	}
	link, ok := e.apptLinks.Link(ctx, string(appt.ID))
	if !ok || link.PatientID == "" {
		return nil
	}
	if p, found := patientsByID[link.PatientID]; found {
		return &models.PatientRef{ID: p.ID, Name: p.Name}
	}
	return &models.PatientRef{ID: models.ID(link.PatientID)}
}

func (e *Engine) resolveDoctor(ctx context.Context, appt models.Appointment, doctorsByID map[string]models.Doctor) *models.DoctorRef {
	if appt.Doctor != nil && !appt.Doctor.ID.IsZero() {
		return appt.Doctor
	}
	link, ok := e.apptLinks.Link(ctx, string(appt.ID))
	if !ok || link.DoctorID == "" {
		return nil
	}
	if d, found := doctorsByID[link.DoctorID]; found {
		return &models.DoctorRef{ID: d.ID, Name: d.Name, Specialization: d.Specialization}
	}
	return &models.DoctorRef{ID: models.ID(link.DoctorID)}
}

func appointmentID(a models.Appointment) models.ID {
	return a.ID
}

func appointmentTime(a models.Appointment) models.FlexTime {
	return a.VisitTime
}
