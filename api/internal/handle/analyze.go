package handle

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"interview-proctor/api/internal/proctor"
	"interview-proctor/api/internal/util"
)

type analyzeRequest struct {
	Image     string `json:"image"`
	MIME      string `json:"mime,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Analyze is the rate-limited analysis endpoint. POST runs one synchronous
// analysis cycle and forwards the model outcome; GET is the health variant
// performing the reachability check only.
func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.health(w, r)
	case http.MethodPost:
		h.analyze(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET or POST only"})
	}
}

func (h *Handle) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.analyzer.Probe(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handle) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json: " + err.Error()})
		return
	}

	img, hintMIME, err := util.DecodeBase64MaybeDataURL(req.Image)
	if err != nil || len(img) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad image payload"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	started := time.Now()
	res, err := h.analyzer.Analyze(ctx, &proctor.Frame{
		Data:       img,
		MIME:       util.PickMIME(req.MIME, hintMIME, img),
		SessionID:  req.SessionID,
		CapturedAt: started,
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "analysis failed",
			"message": "remote model call failed",
			"details": err.Error(),
		})
		return
	}

	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(time.Since(started).Milliseconds(), 10))
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}
