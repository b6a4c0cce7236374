package handlers

import (
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/brickify/internal/export"
	"github.com/lehigh-university-libraries/brickify/internal/imaging"
)

func writeImage(w http.ResponseWriter, img imaging.Image) {
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(img.Data)
}

// HandleOriginalImage serves the uploaded source image
func (h *Handler) HandleOriginalImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	img, ok := sess.Original()
	if !ok {
		h.writeError(w, "No image selected", http.StatusNotFound)
		return
	}
	writeImage(w, img)
}

// HandleVersionImage serves the decoded LEGO image of a build version
func (h *Handler) HandleVersionImage(w http.ResponseWriter, r *http.Request) {
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

	img, err := imaging.DecodeDataURI(bp.LegoImageData)
	if err != nil {
		h.writeError(w, "Failed to decode image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeImage(w, img)
}

// HandleBillOfMaterials serves a build version's bill of materials as YAML
func (h *Handler) HandleBillOfMaterials(w http.ResponseWriter, r *http.Request) {
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

	data, err := export.MarshalBillOfMaterials(bp, "")
	if err != nil {
		h.writeError(w, "Failed to build bill of materials: "+err.Error(), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}
