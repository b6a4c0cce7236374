package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

// ErrIndexOutOfRange is returned when selecting a version that does not exist
var ErrIndexOutOfRange = errors.New("version index out of range")

// BuildStore is the ordered, append-only list of blueprints derived from one
// original image, plus the currently selected entry.
//
// The store permits duplicate sizes. Callers that want one blueprint per size
// check HasSize before generating.
type BuildStore struct {
	mu       sync.RWMutex
	builds   []*models.Blueprint
	selected int
}

// NewBuildStore creates an empty build store
func NewBuildStore() *BuildStore {
	return &BuildStore{selected: -1}
}

// Append adds bp to the end, selects it and returns its index
func (s *BuildStore) Append(bp *models.Blueprint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds = append(s.builds, bp.Clone())
	s.selected = len(s.builds) - 1
	return s.selected
}

// Select changes the current selection
func (s *BuildStore) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.builds) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.builds))
	}
	s.selected = index
	return nil
}

// Current returns a copy of the selected blueprint
func (s *BuildStore) Current() (*models.Blueprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected < 0 {
		return nil, false
	}
	return s.builds[s.selected].Clone(), true
}

// Get returns a copy of the blueprint at index
func (s *BuildStore) Get(index int) (*models.Blueprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.builds) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.builds))
	}
	return s.builds[index].Clone(), nil
}

// All returns copies of every blueprint in generation order
func (s *BuildStore) All() []*models.Blueprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Blueprint, len(s.builds))
	for i, bp := range s.builds {
		out[i] = bp.Clone()
	}
	return out
}

// SizesPresent returns the set of sizes already generated
func (s *BuildStore) SizesPresent() map[models.Size]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sizes := make(map[models.Size]bool, len(s.builds))
	for _, bp := range s.builds {
		sizes[bp.Size] = true
	}
	return sizes
}

func (s *BuildStore) HasSize(size models.Size) bool {
	return s.SizesPresent()[size]
}

func (s *BuildStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.builds)
}

// SelectedIndex returns the current selection, or -1 when empty
func (s *BuildStore) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Reset discards every blueprint
func (s *BuildStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds = nil
	s.selected = -1
}
