package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pywhiz/pywhiz/internal/domain"
)

// APIError is a non-2xx response from the learning API
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Body    []byte `json:"-"`
	Path    string `json:"path,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is maps HTTP statuses onto the domain sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Retryable reports whether the failure is worth counting against the
// circuit breaker: server faults and throttling, not client mistakes.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// newAPIError builds an APIError from a response body
func newAPIError(status int, path string, body []byte) *APIError {
	return &APIError{
		Status:  status,
		Message: messageFromBody(status, body),
		Body:    body,
		Path:    path,
	}
}

// messageFromBody extracts a human readable message. The backend answers
// with {"error": ...}, {"detail": ...}, {"message": ...} or field errors
// such as {"password": ["too short"]}.
func messageFromBody(status int, body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if s := stringValue(fields[key]); s != "" {
				return s
			}
		}

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if s := stringValue(fields[name]); s != "" {
				if name == "non_field_errors" {
					return s
				}
				return fmt.Sprintf("%s: %s", name, s)
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fmt.Sprintf("request failed with status %d (%s)", status, http.StatusText(status))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		for _, item := range val {
			if s := stringValue(item); s != "" {
				return s
			}
		}
	}
	return ""
}
