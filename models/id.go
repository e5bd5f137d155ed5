package models

import (
	"encoding/json"
	"strings"
)

// ID is an opaque record identifier. The upstream API is inconsistent about
// whether ids arrive as JSON numbers or strings, so every id is normalized
// to its text form: 7, 7.0 and "7" all decode to ID("7").
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(NormalizeID(s))
		return nil
	}
	*id = ID(NormalizeID(trimmed))
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

// NormalizeID collapses the integral spellings of an id to one canonical
// string: "7" and "7.0" land on the same index entry. Ids are otherwise
// opaque, so digits never round-trip through a float and spellings like
// "007" or ids wider than 53 bits keep their exact text.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if base, frac, found := strings.Cut(s, "."); found && integralText(base) && zeroText(frac) {
		return base
	}
	return s
}

func integralText(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func zeroText(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}
