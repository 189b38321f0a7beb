package helpers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// WriteJSON writes a standard JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes the request body leniently: unknown fields are accepted,
// the body is capped at 1MB and must be application/json.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		WriteError(w, ErrInvalidJSON.WithDetail("Content-Type must be application/json"))
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		WriteError(w, ErrInvalidJSON)
		return false
	}
	return true
}

// RunID extracts the wizard run handle from the X-Onboarding-Run header or
// the run query parameter.
func RunID(r *http.Request) string {
	if rid := strings.TrimSpace(r.Header.Get("X-Onboarding-Run")); rid != "" {
		return rid
	}
	return strings.TrimSpace(r.URL.Query().Get("run"))
}

// UserID returns the authenticated caller's user ID, as asserted by the
// platform's auth gateway in front of this service. Empty means anonymous.
func UserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}
