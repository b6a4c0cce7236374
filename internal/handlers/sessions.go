package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/lehigh-university-libraries/brickify/internal/models"
	"github.com/lehigh-university-libraries/brickify/internal/session"
)

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.GetAll()
	sessionList := make([]session.Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		sessionList = append(sessionList, sess.Snapshot())
	}
	sort.Slice(sessionList, func(i, j int) bool {
		return sessionList[i].CreatedAt.Before(sessionList[j].CreatedAt)
	})
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(h.newID(), h.deps)
	h.sessions.Set(sess.ID(), sess)
	h.metrics.SetSessionsActive(h.sessions.Len())

	slog.Info("Session created", "session_id", sess.ID())
	h.writeJSONStatus(w, http.StatusCreated, sess.Snapshot())
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, sess.Snapshot())
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	sess.Reset()
	h.sessions.Delete(sess.ID())
	h.metrics.SetSessionsActive(h.sessions.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	sess.Reset()
	h.writeJSON(w, sess.Snapshot())
}

type sizeRequest struct {
	Size string `json:"size"`
}

func (h *Handler) decodeSize(w http.ResponseWriter, r *http.Request) (models.Size, bool) {
	var request sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return "", false
	}
	size, err := models.ParseSize(request.Size)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return size, true
}

// HandleConvert starts the first conversion. With ?wait=true the request
// blocks until the blueprint is ready; otherwise it returns 202 and the
// client polls the session.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	size, ok := h.decodeSize(w, r)
	if !ok {
		return
	}
	h.run(w, r, sess, func(ctx context.Context) (<-chan error, error) {
		return sess.ConvertAsync(ctx, size)
	})
}

// HandleResize derives a new build version at another size
func (h *Handler) HandleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	size, ok := h.decodeSize(w, r)
	if !ok {
		return
	}
	h.run(w, r, sess, func(ctx context.Context) (<-chan error, error) {
		return sess.ResizeAsync(ctx, size)
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, sess *session.Orchestrator, start func(context.Context) (<-chan error, error)) {
	// Runs outlive the request; only the wait form is tied to the client
	ctx := context.WithoutCancel(r.Context())

	done, err := start(ctx)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		h.writeJSONStatus(w, http.StatusAccepted, sess.Snapshot())
		return
	}

	select {
	case err := <-done:
		if err != nil {
			h.writeSessionError(w, err)
			return
		}
		h.writeJSON(w, sess.Snapshot())
	case <-r.Context().Done():
		slog.Info("Client stopped waiting, conversion continues", "session_id", sess.ID())
	}
}

func (h *Handler) HandleSelectVersion(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Index == nil {
		h.writeError(w, "index is required", http.StatusBadRequest)
		return
	}

	if err := sess.SelectVersion(*request.Index); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sess.Snapshot())
}

func (h *Handler) HandleGetVersion(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	index, ok := h.indexOrError(w, r)
	if !ok {
		return
	}

	bp, err := sess.Version(index)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, bp)
}
