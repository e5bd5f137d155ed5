package models

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "Scheduled"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// ValidStatus reports whether s is one of the known appointment states.
func ValidStatus(s string) bool {
	switch AppointmentStatus(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PatientRef is the shallow patient reference some upstream payloads embed
// on an appointment or record.
type PatientRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// DoctorRef is the shallow doctor reference some upstream payloads embed.
type DoctorRef struct {
	ID             ID     `json:"id"`
	Name           string `json:"name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

type Appointment struct {
	ID        ID                `json:"id"`
	VisitTime FlexTime          `json:"visitTime"`
	Status    AppointmentStatus `json:"status"`
	Reason    string            `json:"reason,omitempty"`
	// Patient and Doctor are present only when the upstream chose to nest
	// them; absence does not mean the appointment is unowned.
	Patient *PatientRef `json:"patient,omitempty"`
	Doctor  *DoctorRef  `json:"doctor,omitempty"`
}

type Patient struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Age     int    `json:"age,omitempty"`
	Contact string `json:"contact,omitempty"`
	// DoctorID is the upstream's own notion of the assigned doctor, when it
	// bothers to return one. The assignment index is the authoritative copy.
	DoctorID       ID                     `json:"doctorId,omitempty"`
	Appointments   []Appointment          `json:"appointments,omitempty"`
	MedicalHistory []MedicalHistoryRecord `json:"medicalHistory,omitempty"`
}

type Doctor struct {
	ID             ID            `json:"id"`
	Name           string        `json:"name"`
	Specialization string        `json:"specialization,omitempty"`
	Contact        string        `json:"contact,omitempty"`
	Appointments   []Appointment `json:"appointments,omitempty"`
}

type Feedback struct {
	ID            ID     `json:"id"`
	AppointmentID ID     `json:"appointmentId"`
	Response      string `json:"response,omitempty"`
	// Rating is 1-5 when present; nil means the patient left none.
	Rating *int `json:"rating,omitempty"`
}

type VitalRecord struct {
	ID        ID `json:"id"`
	PatientID ID `json:"patientId,omitempty"`
	HeartRate int `json:"heartRate,omitempty"`
	// BloodPressure is the systolic/diastolic pair as "120/80" text.
	BloodPressure string   `json:"bloodPressure,omitempty"`
	OxygenLevel   float64  `json:"oxygenLevel,omitempty"`
	Temperature   float64  `json:"temperature,omitempty"`
	RecordedAt    FlexTime `json:"recordedAt"`
}

type MedicalHistoryRecord struct {
	ID         ID       `json:"id"`
	PatientID  ID       `json:"patientId,omitempty"`
	Condition  string   `json:"condition"`
	Notes      string   `json:"notes,omitempty"`
	RecordedAt FlexTime `json:"recordedAt"`
}

// AdmissionStatus is the review state of an admission application.
type AdmissionStatus string

const (
	AdmissionPending  AdmissionStatus = "Pending"
	AdmissionApproved AdmissionStatus = "Approved"
	AdmissionRejected AdmissionStatus = "Rejected"
)

func ValidAdmissionStatus(s string) bool {
	switch AdmissionStatus(s) {
	case AdmissionPending, AdmissionApproved, AdmissionRejected:
		return true
	}
	return false
}

type AdmissionApplication struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Age         int             `json:"age,omitempty"`
	Contact     string          `json:"contact,omitempty"`
	Condition   string          `json:"condition,omitempty"`
	Status      AdmissionStatus `json:"status,omitempty"`
	SubmittedAt FlexTime        `json:"submittedAt"`
}

// AppointmentLink is the locally cached owner pair for an appointment. The
// upstream does not guarantee it returns these associations later, so the
// creating client records them at creation time.
type AppointmentLink struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
}
