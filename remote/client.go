// Package remote is the HTTP client for the upstream records API. The
// upstream has no relational-query support: every collection is fetched
// flat and relationships are reconstructed client-side by the engine.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/careloop/backend/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Collection paths on the upstream API.
const (
	patientsPath     = "patients"
	doctorsPath      = "doctors"
	appointmentsPath = "appointments"
	feedbackPath     = "feedbacks"
	vitalsPath       = "vitals"
	historyPath      = "medical-history"
	admissionsPath   = "admissions"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do runs one upstream call. Any failure comes back as a single *APIError
// whose message is already resolved for display.
func (c *Client) do(ctx context.Context, method, rawURL string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to encode request payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return errors.Wrap(err, "failed to build upstream request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err))
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resolveMessage(data)}
		c.logger.Warn("upstream rejected request",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("unreadable response from records service: %v", err),
		}
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, collection string) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, c.url(collection), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, collection, id string) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodGet, c.url(collection, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func create[T any](ctx context.Context, c *Client, collection string, payload interface{}) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodPost, c.url(collection), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func update[T any](ctx context.Context, c *Client, collection, id string, payload interface{}) (*T, error) {
	var out T
	if err := c.do(ctx, http.MethodPut, c.url(collection, id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) remove(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.url(collection, id), nil, nil)
}

// Patients

func (c *Client) ListPatients(ctx context.Context) ([]models.Patient, error) {
	return list[models.Patient](ctx, c, patientsPath)
}

func (c *Client) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	return get[models.Patient](ctx, c, patientsPath, id)
}

func (c *Client) CreatePatient(ctx context.Context, payload interface{}) (*models.Patient, error) {
	return create[models.Patient](ctx, c, patientsPath, payload)
}

func (c *Client) UpdatePatient(ctx context.Context, id string, payload interface{}) (*models.Patient, error) {
	return update[models.Patient](ctx, c, patientsPath, id, payload)
}

func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.remove(ctx, patientsPath, id)
}

// Doctors

func (c *Client) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	return list[models.Doctor](ctx, c, doctorsPath)
}

func (c *Client) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	return get[models.Doctor](ctx, c, doctorsPath, id)
}

func (c *Client) CreateDoctor(ctx context.Context, payload interface{}) (*models.Doctor, error) {
	return create[models.Doctor](ctx, c, doctorsPath, payload)
}

func (c *Client) UpdateDoctor(ctx context.Context, id string, payload interface{}) (*models.Doctor, error) {
	return update[models.Doctor](ctx, c, doctorsPath, id, payload)
}

func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	return c.remove(ctx, doctorsPath, id)
}

// Appointments

func (c *Client) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return list[models.Appointment](ctx, c, appointmentsPath)
}

func (c *Client) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	return get[models.Appointment](ctx, c, appointmentsPath, id)
}

func (c *Client) CreateAppointment(ctx context.Context, payload interface{}) (*models.Appointment, error) {
	return create[models.Appointment](ctx, c, appointmentsPath, payload)
}

func (c *Client) UpdateAppointment(ctx context.Context, id string, payload interface{}) (*models.Appointment, error) {
	return update[models.Appointment](ctx, c, appointmentsPath, id, payload)
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.remove(ctx, appointmentsPath, id)
}

// Feedback

func (c *Client) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	return list[models.Feedback](ctx, c, feedbackPath)
}

func (c *Client) GetFeedback(ctx context.Context, id string) (*models.Feedback, error) {
	return get[models.Feedback](ctx, c, feedbackPath, id)
}

func (c *Client) CreateFeedback(ctx context.Context, payload interface{}) (*models.Feedback, error) {
	return create[models.Feedback](ctx, c, feedbackPath, payload)
}

func (c *Client) DeleteFeedback(ctx context.Context, id string) error {
	return c.remove(ctx, feedbackPath, id)
}

// Vitals

func (c *Client) ListVitals(ctx context.Context) ([]models.VitalRecord, error) {
	return list[models.VitalRecord](ctx, c, vitalsPath)
}

func (c *Client) CreateVital(ctx context.Context, payload interface{}) (*models.VitalRecord, error) {
	return create[models.VitalRecord](ctx, c, vitalsPath, payload)
}

func (c *Client) DeleteVital(ctx context.Context, id string) error {
	return c.remove(ctx, vitalsPath, id)
}

// Medical history

func (c *Client) ListHistory(ctx context.Context) ([]models.MedicalHistoryRecord, error) {
	return list[models.MedicalHistoryRecord](ctx, c, historyPath)
}

func (c *Client) GetHistory(ctx context.Context, id string) (*models.MedicalHistoryRecord, error) {
	return get[models.MedicalHistoryRecord](ctx, c, historyPath, id)
}

func (c *Client) CreateHistory(ctx context.Context, payload interface{}) (*models.MedicalHistoryRecord, error) {
	return create[models.MedicalHistoryRecord](ctx, c, historyPath, payload)
}

func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.remove(ctx, historyPath, id)
}

// Admissions

func (c *Client) ListAdmissions(ctx context.Context) ([]models.AdmissionApplication, error) {
	return list[models.AdmissionApplication](ctx, c, admissionsPath)
}

func (c *Client) CreateAdmission(ctx context.Context, payload interface{}) (*models.AdmissionApplication, error) {
	return create[models.AdmissionApplication](ctx, c, admissionsPath, payload)
}

func (c *Client) UpdateAdmission(ctx context.Context, id string, payload interface{}) (*models.AdmissionApplication, error) {
	return update[models.AdmissionApplication](ctx, c, admissionsPath, id, payload)
}

func (c *Client) DeleteAdmission(ctx context.Context, id string) error {
	return c.remove(ctx, admissionsPath, id)
}
