package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"interview-proctor/api/internal/proctor"
)

// ViolationLister is the slice of the store the handlers need.
type ViolationLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]proctor.ViolationEvent, error)
}

type Handle struct {
	analyzer *proctor.Analyzer
	store    ViolationLister // nil when persistence is not configured
}

func New(analyzer *proctor.Analyzer, store ViolationLister) *Handle {
	return &Handle{
		analyzer: analyzer,
		store:    store,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// requestDeadline honors X-Request-Timeout / ?timeoutSec, defaulting to 30s.
func requestDeadline(r *http.Request) time.Duration {
	deadline := 30 * time.Second
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}
