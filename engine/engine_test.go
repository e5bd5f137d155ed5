package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/careloop/backend/index"
	"github.com/careloop/backend/models"
	"github.com/careloop/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	patients     []models.Patient
	doctors      []models.Doctor
	appointments []models.Appointment
	feedback     []models.Feedback
	vitals       []models.VitalRecord
	history      []models.MedicalHistoryRecord

	patientErr      error
	doctorErr       error
	appointmentsErr error
	feedbackErr     error
	vitalsErr       error
	historyErr      error

	// When set, the first ListAppointments call signals blocked and then
	// waits on appointmentsGate, so tests can hold one load open while
	// another completes.
	appointmentsGate chan struct{}
	blocked          chan struct{}
	appointmentCalls int32
}

func (s *stubFetcher) GetPatient(_ context.Context, id string) (*models.Patient, error) {
	if s.patientErr != nil {
		return nil, s.patientErr
	}
	for _, p := range s.patients {
		if models.NormalizeID(string(p.ID)) == models.NormalizeID(id) {
			cp := p
			return &cp, nil
		}
	}
	return &models.Patient{ID: models.ID(models.NormalizeID(id))}, nil
}

func (s *stubFetcher) ListPatients(context.Context) ([]models.Patient, error) {
	return s.patients, s.patientErr
}

func (s *stubFetcher) GetDoctor(_ context.Context, id string) (*models.Doctor, error) {
	if s.doctorErr != nil {
		return nil, s.doctorErr
	}
	for _, d := range s.doctors {
		if models.NormalizeID(string(d.ID)) == models.NormalizeID(id) {
			cp := d
			return &cp, nil
		}
	}
	return &models.Doctor{ID: models.ID(models.NormalizeID(id))}, nil
}

func (s *stubFetcher) ListDoctors(context.Context) ([]models.Doctor, error) {
	return s.doctors, s.doctorErr
}

func (s *stubFetcher) ListAppointments(context.Context) ([]models.Appointment, error) {
	if s.appointmentsGate != nil && atomic.AddInt32(&s.appointmentCalls, 1) == 1 {
		close(s.blocked)
		<-s.appointmentsGate
	}
	return s.appointments, s.appointmentsErr
}

func (s *stubFetcher) ListFeedback(context.Context) ([]models.Feedback, error) {
	return s.feedback, s.feedbackErr
}

func (s *stubFetcher) ListVitals(context.Context) ([]models.VitalRecord, error) {
	return s.vitals, s.vitalsErr
}

func (s *stubFetcher) ListHistory(context.Context) ([]models.MedicalHistoryRecord, error) {
	return s.history, s.historyErr
}

type testRig struct {
	engine      *Engine
	assignments *index.AssignmentIndex
	apptLinks   *index.AppointmentLinkIndex
	histLinks   *index.HistoryLinkIndex
}

func newTestRig(f Fetcher) *testRig {
	st := store.NewMemoryStore()
	logger := zap.NewNop()
	assignments := index.NewAssignmentIndex(st, logger)
	apptLinks := index.NewAppointmentLinkIndex(st, logger)
	histLinks := index.NewHistoryLinkIndex(st, logger)
	return &testRig{
		engine:      NewEngine(f, assignments, apptLinks, histLinks, logger),
		assignments: assignments,
		apptLinks:   apptLinks,
		histLinks:   histLinks,
	}
}

func at(t time.Time) models.FlexTime {
	return models.NewFlexTime(t)
}

func TestLoadPatientAppointmentsMergePrecedence(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{
			ID: "3",
			Appointments: []models.Appointment{
				{ID: "1", Status: models.StatusScheduled},
			},
		}},
		appointments: []models.Appointment{
			{ID: "1", Status: models.StatusCompleted},
		},
	})
	require.NoError(t, rig.apptLinks.SetLink(ctx, "1", "3", "9"))

	views, err := rig.engine.LoadPatientAppointments(ctx, "3")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusCompleted, views[0].Status,
		"link-qualified flat record must overwrite the embedded snapshot")
}

func TestLoadPatientAppointmentsUnionsEmbeddedAndLinked(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{
			ID: "3",
			Appointments: []models.Appointment{
				{ID: "2", Status: models.StatusScheduled},
			},
		}},
		appointments: []models.Appointment{
			{ID: "1", Status: models.StatusScheduled},
			{ID: "5", Status: models.StatusScheduled}, // someone else's
		},
	})
	require.NoError(t, rig.apptLinks.SetLink(ctx, "1", "3", "9"))
	require.NoError(t, rig.apptLinks.SetLink(ctx, "5", "4", "9"))

	views, err := rig.engine.LoadPatientAppointments(ctx, "3")
	require.NoError(t, err)

	var ids []models.ID
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.ElementsMatch(t, []models.ID{"1", "2"}, ids)
}

func TestLoadPatientAppointmentsSortOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3"}},
		appointments: []models.Appointment{
			{ID: "1", VisitTime: at(base)},
			{ID: "2", VisitTime: at(base.Add(2 * time.Hour))},
			{ID: "3", VisitTime: at(base.Add(time.Hour))},
			{ID: "4"}, // no timestamp, sorts last
		},
	})
	for _, aid := range []string{"1", "2", "3", "4"} {
		require.NoError(t, rig.apptLinks.SetLink(ctx, aid, "3", "9"))
	}

	views, err := rig.engine.LoadPatientAppointments(ctx, "3")
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, models.ID("2"), views[0].ID)
	assert.Equal(t, models.ID("3"), views[1].ID)
	assert.Equal(t, models.ID("1"), views[2].ID)
	assert.Equal(t, models.ID("4"), views[3].ID)
}

func TestLoadDoctorAppointmentsFetchBarrierFailsWhole(t *testing.T) {
	rig := newTestRig(&stubFetcher{
		doctors:         []models.Doctor{{ID: "9", Name: "Dr. Rao"}},
		appointmentsErr: assert.AnError,
	})

	views, err := rig.engine.LoadDoctorAppointments(context.Background(), "9")
	require.Error(t, err)
	assert.Nil(t, views, "no partial appointment list on barrier failure")
}

func TestLoadDoctorAppointmentsPatientResolution(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		doctors: []models.Doctor{{ID: "9"}},
		patients: []models.Patient{
			{ID: "3", Name: "Asha"},
		},
		appointments: []models.Appointment{
			{ID: "1", Patient: &models.PatientRef{ID: "4", Name: "Binu"}},
			{ID: "2"}, // resolvable via link
			{ID: "6"}, // dangling link: patient 99 not in fetch
			{ID: "7"}, // unresolvable, still listed
		},
	})
	require.NoError(t, rig.apptLinks.SetLink(ctx, "1", "4", "9"))
	require.NoError(t, rig.apptLinks.SetLink(ctx, "2", "3", "9"))
	require.NoError(t, rig.apptLinks.SetLink(ctx, "6", "99", "9"))
	require.NoError(t, rig.apptLinks.SetLink(ctx, "7", "", "9"))

	views, err := rig.engine.LoadDoctorAppointments(ctx, "9")
	require.NoError(t, err)
	require.Len(t, views, 4)

	byID := make(map[models.ID]AppointmentView)
	for _, v := range views {
		byID[v.ID] = v
	}

	require.NotNil(t, byID["1"].ResolvedPatient)
	assert.Equal(t, "Binu", byID["1"].ResolvedPatient.Name, "embedded reference wins")

	require.NotNil(t, byID["2"].ResolvedPatient)
	assert.Equal(t, "Asha", byID["2"].ResolvedPatient.Name, "link entry resolves through the fetch")

	require.NotNil(t, byID["6"].ResolvedPatient)
	assert.Equal(t, models.ID("99"), byID["6"].ResolvedPatient.ID)
	assert.Empty(t, byID["6"].ResolvedPatient.Name, "dangling link keeps the bare id")

	assert.Nil(t, byID["7"].ResolvedPatient, "unresolved stays in the list")
}

func TestLoadPatientHistoryBootstrap(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3", Name: "Asha"}},
		history: []models.MedicalHistoryRecord{
			{ID: "h1", Condition: "asthma"},
			{ID: "h2", Condition: "fracture"},
		},
	})

	records, err := rig.engine.LoadPatientHistory(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, records, 2, "sole patient adopts every record")

	// The adoption persisted links, so the index now answers directly.
	assert.ElementsMatch(t, []string{"h1", "h2"}, rig.histLinks.IDsForPatient(ctx, "3"))

	// A later load takes the link path and returns the same records.
	records, err = rig.engine.LoadPatientHistory(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadPatientHistoryBootstrapDoesNotFireWithManyPatients(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3"}, {ID: "4"}},
		history: []models.MedicalHistoryRecord{
			{ID: "h1"},
		},
	})

	records, err := rig.engine.LoadPatientHistory(ctx, "3")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, rig.histLinks.IDsForPatient(ctx, "3"))
}

func TestLoadPatientHistoryBootstrapNeverOverridesLinks(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3"}},
		history: []models.MedicalHistoryRecord{
			{ID: "h1"},
			{ID: "h2"},
			{ID: "h3"},
		},
	})
	require.NoError(t, rig.histLinks.AddLink(ctx, "3", "h2"))

	records, err := rig.engine.LoadPatientHistory(ctx, "3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ID("h2"), records[0].ID)
}

func TestSupersededHistoryLoadLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3"}},
		history: []models.MedicalHistoryRecord{
			{ID: "h1"},
		},
	})

	// A newer refresh for the same subject already applied, so this load
	// loses the gate and must not write its adopted links back.
	rig.engine.gate.commit("patient-history:3", 99)

	_, err := rig.engine.LoadPatientHistory(ctx, "3")
	require.ErrorIs(t, err, ErrSuperseded)
	assert.Empty(t, rig.histLinks.IDsForPatient(ctx, "3"))
}

func TestLoadPatientVitals(t *testing.T) {
	ctx := context.Background()

	t.Run("embedded patient reference filters", func(t *testing.T) {
		rig := newTestRig(&stubFetcher{
			patients: []models.Patient{{ID: "3"}, {ID: "4"}},
			vitals: []models.VitalRecord{
				{ID: "v1", PatientID: "3"},
				{ID: "v2", PatientID: "4"},
			},
		})

		vitals, err := rig.engine.LoadPatientVitals(ctx, "3")
		require.NoError(t, err)
		require.Len(t, vitals, 1)
		assert.Equal(t, models.ID("v1"), vitals[0].ID)
	})

	t.Run("sole patient adopts unreferenced vitals", func(t *testing.T) {
		rig := newTestRig(&stubFetcher{
			patients: []models.Patient{{ID: "3"}},
			vitals: []models.VitalRecord{
				{ID: "v1"},
				{ID: "v2"},
			},
		})

		vitals, err := rig.engine.LoadPatientVitals(ctx, "3")
		require.NoError(t, err)
		assert.Len(t, vitals, 2)
	})
}

func TestLoadDoctorAssignedPatients(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{
			{ID: "3", Name: "Asha"},
			{ID: "4", Name: "Binu", DoctorID: "9"},
			{ID: "5", Name: "Chand"},
		},
	})
	require.NoError(t, rig.assignments.SetAssignedDoctor(ctx, "3", "9"))

	patients, err := rig.engine.LoadDoctorAssignedPatients(ctx, "9")
	require.NoError(t, err)

	var names []string
	for _, p := range patients {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Asha", "Binu"}, names,
		"index assignment and embedded assignment both count, fetch order kept")
}

func TestFeedbackVisibility(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{
		patients: []models.Patient{{ID: "3"}, {ID: "4"}},
		appointments: []models.Appointment{
			{ID: "1"},
			{ID: "2"},
		},
		feedback: []models.Feedback{
			{ID: "f1", AppointmentID: "1"},
			{ID: "f2", AppointmentID: "2"},
			{ID: "f3", AppointmentID: "404"},
		},
	})
	require.NoError(t, rig.apptLinks.SetLink(ctx, "1", "3", "9"))
	require.NoError(t, rig.apptLinks.SetLink(ctx, "2", "4", "9"))

	patientFeedback, err := rig.engine.LoadPatientFeedback(ctx, "3")
	require.NoError(t, err)
	require.Len(t, patientFeedback, 1)
	assert.Equal(t, models.ID("f1"), patientFeedback[0].ID)

	doctorFeedback, err := rig.engine.LoadDoctorFeedback(ctx, "9")
	require.NoError(t, err)
	assert.Len(t, doctorFeedback, 2, "doctor sees feedback for both linked appointments")
}

func TestLinkHooks(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(&stubFetcher{})

	require.NoError(t, rig.engine.RecordAppointmentCreated(ctx, "7", "3", "9"))
	link, ok := rig.apptLinks.Link(ctx, "7")
	require.True(t, ok)
	assert.Equal(t, models.AppointmentLink{PatientID: "3", DoctorID: "9"}, link)

	require.NoError(t, rig.engine.RecordAppointmentDeleted(ctx, "7"))
	_, ok = rig.apptLinks.Link(ctx, "7")
	assert.False(t, ok)

	require.NoError(t, rig.engine.RecordHistoryCreated(ctx, "3", "h1"))
	assert.Equal(t, []string{"h1"}, rig.histLinks.IDsForPatient(ctx, "3"))
	require.NoError(t, rig.engine.RecordHistoryDeleted(ctx, "3", "h1"))
	assert.Empty(t, rig.histLinks.IDsForPatient(ctx, "3"))

	require.NoError(t, rig.engine.RecordAssignment(ctx, "3", "9"))
	doctorID, ok := rig.assignments.AssignedDoctor(ctx, "3")
	require.True(t, ok)
	assert.Equal(t, "9", doctorID)
}

func TestDefaultDoctor(t *testing.T) {
	id, ok := DefaultDoctor([]models.Doctor{{ID: "9"}, {ID: "2"}})
	require.True(t, ok)
	assert.Equal(t, models.ID("9"), id)

	_, ok = DefaultDoctor(nil)
	assert.False(t, ok)
}

func TestAdoptAllForSolePatientPolicy(t *testing.T) {
	all := []int{1, 2, 3}

	t.Run("fires on empty match and single patient", func(t *testing.T) {
		out, adopted := adoptAllForSolePatient(nil, all, 1)
		assert.True(t, adopted)
		assert.Equal(t, all, out)
	})

	t.Run("fires with zero patients", func(t *testing.T) {
		_, adopted := adoptAllForSolePatient(nil, all, 0)
		assert.True(t, adopted)
	})

	t.Run("does not fire with two patients", func(t *testing.T) {
		out, adopted := adoptAllForSolePatient(nil, all, 2)
		assert.False(t, adopted)
		assert.Empty(t, out)
	})

	t.Run("never overrides a non-empty match", func(t *testing.T) {
		out, adopted := adoptAllForSolePatient([]int{2}, all, 1)
		assert.False(t, adopted)
		assert.Equal(t, []int{2}, out)
	})
}

func TestSeqGate(t *testing.T) {
	var g seqGate
	first := g.begin()
	second := g.begin()

	assert.True(t, g.commit("s", second))
	assert.False(t, g.commit("s", first), "older result must be discarded")
	assert.True(t, g.commit("other", first), "subjects are independent")
}

func TestOverlappingLoadsDiscardStaleResult(t *testing.T) {
	ctx := context.Background()
	slow := &stubFetcher{
		patients:         []models.Patient{{ID: "3"}},
		appointments:     []models.Appointment{{ID: "1"}},
		appointmentsGate: make(chan struct{}),
		blocked:          make(chan struct{}),
	}
	rig := newTestRig(slow)
	require.NoError(t, rig.apptLinks.SetLink(ctx, "1", "3", "9"))

	var wg sync.WaitGroup
	wg.Add(1)
	var staleErr error
	go func() {
		defer wg.Done()
		_, staleErr = rig.engine.LoadPatientAppointments(ctx, "3")
	}()

	// Wait until the first load is held open mid-fetch, then let a newer
	// load run to completion.
	<-slow.blocked
	views, err := rig.engine.LoadPatientAppointments(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, views, 1)

	close(slow.appointmentsGate)
	wg.Wait()
	assert.ErrorIs(t, staleErr, ErrSuperseded)
}
