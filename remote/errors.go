package remote

import (
	"encoding/json"
	"fmt"
	"strings"
)

// genericFailure is the last resort when the upstream gives nothing usable.
const genericFailure = "something went wrong talking to the records service"

// APIError is the single user-facing failure for an upstream call. Status
// is zero when the request never produced a response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// errorBody is the error envelope shape the upstream sometimes returns.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// resolveMessage turns an error response body into one readable message,
// trying each representation in order: structured message field, structured
// error field, raw string body, generic fallback.
func resolveMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return genericFailure
	}

	var structured errorBody
	if err := json.Unmarshal(body, &structured); err == nil {
		if structured.Message != "" {
			return structured.Message
		}
		if structured.Error != "" {
			return structured.Error
		}
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && strings.TrimSpace(plain) != "" {
		return strings.TrimSpace(plain)
	}

	return trimmed
}
