package session

import (
	"time"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

// Version summarizes one build for listings
type Version struct {
	Index         int         `json:"index"`
	Title         string      `json:"title"`
	Size          models.Size `json:"size"`
	IsFallback    bool        `json:"isFallback"`
	TotalPieces   int         `json:"totalPieces"`
	RealTotalCost *float64    `json:"realTotalCost,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Snapshot is a copy of a session's state for rendering
type Snapshot struct {
	ID           string            `json:"id"`
	State        State             `json:"state"`
	Busy         bool              `json:"busy"`
	Resizing     bool              `json:"resizing"`
	Error        string            `json:"error,omitempty"`
	ResizeError  string            `json:"resizeError,omitempty"`
	Progress     string            `json:"progress,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	HasImage     bool              `json:"hasImage"`
	Versions     []Version         `json:"versions"`
	CurrentIndex int               `json:"currentIndex"`
	Current      *models.Blueprint `json:"current,omitempty"`
	SizesPresent []models.Size     `json:"sizesPresent"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Snapshot returns the current state of the session
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		ID:           o.id,
		State:        o.state,
		Busy:         o.busy,
		Resizing:     o.resizing,
		Error:        o.errMessage,
		ResizeError:  o.resizeError,
		Progress:     o.progress,
		Filename:     o.filename,
		HasImage:     o.original != nil,
		Versions:     []Version{},
		CurrentIndex: o.builds.SelectedIndex(),
		SizesPresent: []models.Size{},
		CreatedAt:    o.createdAt,
		UpdatedAt:    o.updatedAt,
	}

	for i, bp := range o.builds.All() {
		snap.Versions = append(snap.Versions, Version{
			Index:         i,
			Title:         bp.Title,
			Size:          bp.Size,
			IsFallback:    bp.IsFallback,
			TotalPieces:   bp.TotalPieces,
			RealTotalCost: bp.RealTotalCost,
			CreatedAt:     bp.CreatedAt,
		})
	}

	if current, ok := o.builds.Current(); ok {
		snap.Current = current
	}

	present := o.builds.SizesPresent()
	for _, size := range models.Sizes {
		if present[size] {
			snap.SizesPresent = append(snap.SizesPresent, size)
		}
	}

	return snap
}
