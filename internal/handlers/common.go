// Package handlers exposes conversion sessions over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/brickify/internal/images"
	"github.com/lehigh-university-libraries/brickify/internal/imaging"
	"github.com/lehigh-university-libraries/brickify/internal/metrics"
	"github.com/lehigh-university-libraries/brickify/internal/session"
	"github.com/lehigh-university-libraries/brickify/internal/storage"
)

type Handler struct {
	sessions       *storage.SessionStore[*session.Orchestrator]
	deps           session.Deps
	metrics        *metrics.Metrics
	maxUploadBytes int64
	newID          func() string
}

// New creates a handler whose sessions share deps
func New(deps session.Deps, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = images.DefaultMaxBytes
	}
	return &Handler{
		sessions:       storage.New[*session.Orchestrator](),
		deps:           deps,
		metrics:        deps.Metrics,
		maxUploadBytes: maxUploadBytes,
		newID:          uuid.NewString,
	}
}

// Routes returns the API mux wrapped with request metrics
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.HandleReset)
	mux.HandleFunc("POST /api/sessions/{id}/image", h.HandleSelectImage)
	mux.HandleFunc("GET /api/sessions/{id}/image", h.HandleOriginalImage)
	mux.HandleFunc("POST /api/sessions/{id}/convert", h.HandleConvert)
	mux.HandleFunc("POST /api/sessions/{id}/versions", h.HandleResize)
	mux.HandleFunc("PUT /api/sessions/{id}/current", h.HandleSelectVersion)
	mux.HandleFunc("GET /api/sessions/{id}/versions/{index}", h.HandleGetVersion)
	mux.HandleFunc("GET /api/sessions/{id}/versions/{index}/image", h.HandleVersionImage)
	mux.HandleFunc("GET /api/sessions/{id}/versions/{index}/bom", h.HandleBillOfMaterials)
	mux.Handle("GET /metrics", h.metrics.Handler())
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return h.instrument(mux)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message)
	}
	http.Error(w, message, code)
}

// writeSessionError maps orchestrator errors to HTTP status codes
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, imaging.ErrNotImage), errors.Is(err, storage.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrSizeExists),
		errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrSessionReset):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*session.Orchestrator, bool) {
	sess, exists := h.sessions.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	sess.Access()
	return sess, true
}

func (h *Handler) indexOrError(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeError(w, "Invalid version index: "+r.PathValue("index"), http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		h.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
	})
}
