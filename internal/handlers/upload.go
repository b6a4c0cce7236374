package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// HandleSelectImage accepts a multipart "file" upload or a JSON body with an
// image_url to download
func (h *Handler) HandleSelectImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var request struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if request.ImageURL == "" {
			h.writeError(w, "image_url is required", http.StatusBadRequest)
			return
		}
		if err := sess.SelectImageURL(r.Context(), request.ImageURL); err != nil {
			if statusFor(err) == http.StatusBadGateway {
				h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
				return
			}
			h.writeSessionError(w, err)
			return
		}
		h.writeJSON(w, sess.Snapshot())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(fileData)) > h.maxUploadBytes {
		h.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := sess.SelectImage(fileData, header.Filename); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeJSON(w, sess.Snapshot())
}
