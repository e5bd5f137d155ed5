package models

import (
	"encoding/json"
	"strings"
	"time"
)

// timeLayouts are tried in order when decoding upstream timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FlexTime is a timestamp that tolerates the upstream's mixed formats.
// Values that are absent or unparseable compare as the zero time, which
// sorts them to the end of a newest-first listing.
type FlexTime struct {
	raw string
	t   time.Time
}

func NewFlexTime(t time.Time) FlexTime {
	return FlexTime{raw: t.Format(time.RFC3339), t: t}
}

func ParseFlexTime(raw string) FlexTime {
	ft := FlexTime{raw: raw}
	s := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ft.t = t
			break
		}
	}
	return ft
}

func (ft *FlexTime) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*ft = FlexTime{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ft = ParseFlexTime(s)
		return nil
	}
	// Non-string timestamp, keep the raw text but treat it as unparseable.
	*ft = FlexTime{raw: trimmed}
	return nil
}

func (ft FlexTime) MarshalJSON() ([]byte, error) {
	if ft.raw != "" {
		return json.Marshal(ft.raw)
	}
	if ft.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ft.t.Format(time.RFC3339))
}

// Time returns the parsed timestamp, zero when the raw value was
// missing or unparseable.
func (ft FlexTime) Time() time.Time {
	return ft.t
}

func (ft FlexTime) IsZero() bool {
	return ft.t.IsZero()
}

func (ft FlexTime) Raw() string {
	return ft.raw
}

// Before reports whether ft sorts after t in a newest-first ordering,
// i.e. ft is strictly older.
func (ft FlexTime) Before(other FlexTime) bool {
	return ft.t.Before(other.t)
}
