package handle

import (
	"net/http"
	"strconv"
	"strings"
)

// Violations lists persisted events for one session, newest first.
func (h *Handle) Violations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET only"})
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage not configured"})
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
		return
	}
	limit := 100
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, _ := strconv.Atoi(ls); v > 0 && v <= 1000 {
			limit = v
		}
	}

	events, err := h.store.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list violations: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"violations": events})
}
