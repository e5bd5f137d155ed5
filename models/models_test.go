package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	t.Run("number and string collide", func(t *testing.T) {
		var a, b ID
		require.NoError(t, json.Unmarshal([]byte(`7`), &a))
		require.NoError(t, json.Unmarshal([]byte(`"7"`), &b))
		assert.Equal(t, a, b)
		assert.Equal(t, ID("7"), a)
	})

	t.Run("float with integral value", func(t *testing.T) {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(`7.0`), &id))
		assert.Equal(t, ID("7"), id)
	})

	t.Run("null decodes to empty", func(t *testing.T) {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(`null`), &id))
		assert.True(t, id.IsZero())
	})

	t.Run("non-numeric text kept as-is", func(t *testing.T) {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(`" abc-123 "`), &id))
		assert.Equal(t, ID("abc-123"), id)
	})
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "7", NormalizeID("7"))
	assert.Equal(t, "7", NormalizeID(" 7 "))
	assert.Equal(t, "7", NormalizeID("7.0"))
	assert.Equal(t, "7", NormalizeID("7.00"))
	assert.Equal(t, "-7", NormalizeID("-7.0"))
	assert.Equal(t, "7.5", NormalizeID("7.5"))
	assert.Equal(t, "", NormalizeID("  "))
	assert.Equal(t, "p-42", NormalizeID("p-42"))
	assert.Equal(t, "007", NormalizeID("007"))
	assert.Equal(t, "9e2", NormalizeID("9e2"))

	// ids wider than float53 must stay exact and distinct
	assert.Equal(t, "9007199254740993", NormalizeID("9007199254740993"))
	assert.NotEqual(t, NormalizeID("9007199254740992"), NormalizeID("9007199254740993"))
}

func TestFlexTimeUnmarshal(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T10:30:00Z"`), &ft))
		assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), ft.Time())
	})

	t.Run("date only", func(t *testing.T) {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-01"`), &ft))
		assert.False(t, ft.IsZero())
	})

	t.Run("space separated", func(t *testing.T) {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-01 10:30:00"`), &ft))
		assert.False(t, ft.IsZero())
	})

	t.Run("garbage is zero not error", func(t *testing.T) {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(`"next tuesday"`), &ft))
		assert.True(t, ft.IsZero())
		assert.Equal(t, "next tuesday", ft.Raw())
	})

	t.Run("null is zero", func(t *testing.T) {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(`null`), &ft))
		assert.True(t, ft.IsZero())
	})
}

func TestFlexTimeMarshalRoundTrip(t *testing.T) {
	ft := ParseFlexTime("2025-03-01T10:30:00Z")
	out, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-01T10:30:00Z"`, string(out))
}

func TestAppointmentDecodeWithNestedRefs(t *testing.T) {
	payload := []byte(`{
		"id": 12,
		"visitTime": "2025-04-02T09:00:00Z",
		"status": "Scheduled",
		"patient": {"id": 3, "name": "Asha"},
		"doctor": {"id": "9", "name": "Dr. Rao"}
	}`)
	var appt Appointment
	require.NoError(t, json.Unmarshal(payload, &appt))
	assert.Equal(t, ID("12"), appt.ID)
	require.NotNil(t, appt.Patient)
	assert.Equal(t, ID("3"), appt.Patient.ID)
	require.NotNil(t, appt.Doctor)
	assert.Equal(t, ID("9"), appt.Doctor.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
}
