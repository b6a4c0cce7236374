package storage

import (
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/brickify/internal/models"
)

func blueprint(title string, size models.Size) *models.Blueprint {
	return &models.Blueprint{
		Title:     title,
		Size:      size,
		PartsList: []models.Part{{PieceID: "3001", PieceName: "Brick 2 x 4", Color: "Red", Quantity: 1}},
	}
}

func TestBuildStoreEmpty(t *testing.T) {
	s := NewBuildStore()

	if _, ok := s.Current(); ok {
		t.Error("Expected no current blueprint in an empty store")
	}
	if s.SelectedIndex() != -1 {
		t.Errorf("Expected selected index -1, got %d", s.SelectedIndex())
	}
	if len(s.SizesPresent()) != 0 {
		t.Errorf("Expected no sizes, got %v", s.SizesPresent())
	}
	if err := s.Select(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestBuildStoreAppendSelects(t *testing.T) {
	s := NewBuildStore()

	if i := s.Append(blueprint("first", models.SizeMedium)); i != 0 {
		t.Errorf("Expected index 0, got %d", i)
	}
	if i := s.Append(blueprint("second", models.SizeLarge)); i != 1 {
		t.Errorf("Expected index 1, got %d", i)
	}

	current, ok := s.Current()
	if !ok || current.Title != "second" {
		t.Errorf("Expected newest entry selected, got %+v", current)
	}

	if err := s.Select(0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	current, _ = s.Current()
	if current.Title != "first" || current.Size != models.SizeMedium {
		t.Errorf("Expected first entry unchanged and selectable, got %+v", current)
	}
}

func TestBuildStoreSelectOutOfRange(t *testing.T) {
	s := NewBuildStore()
	s.Append(blueprint("only", models.SizeMicro))

	for _, index := range []int{-1, 1, 42} {
		if err := s.Select(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Select(%d): expected ErrIndexOutOfRange, got %v", index, err)
		}
	}
	if s.SelectedIndex() != 0 {
		t.Errorf("Expected selection unchanged, got %d", s.SelectedIndex())
	}
	if _, err := s.Get(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestBuildStoreSizesPresent(t *testing.T) {
	s := NewBuildStore()
	s.Append(blueprint("a", models.SizeMedium))
	s.Append(blueprint("b", models.SizeLarge))

	sizes := s.SizesPresent()
	if !sizes[models.SizeMedium] || !sizes[models.SizeLarge] || sizes[models.SizeMicro] {
		t.Errorf("Unexpected sizes: %v", sizes)
	}
	if !s.HasSize(models.SizeLarge) || s.HasSize(models.SizeMicro) {
		t.Error("HasSize disagrees with SizesPresent")
	}
}

func TestBuildStorePermitsDuplicateSizes(t *testing.T) {
	s := NewBuildStore()
	s.Append(blueprint("a", models.SizeMedium))
	s.Append(blueprint("b", models.SizeMedium))

	if s.Len() != 2 {
		t.Errorf("Expected store to permit duplicate sizes, got %d entries", s.Len())
	}
	if len(s.SizesPresent()) != 1 {
		t.Errorf("Expected one distinct size, got %v", s.SizesPresent())
	}
}

func TestBuildStoreCopies(t *testing.T) {
	s := NewBuildStore()
	original := blueprint("a", models.SizeMedium)
	s.Append(original)

	original.Title = "mutated"
	original.PartsList[0].Quantity = 50

	got, _ := s.Get(0)
	if got.Title != "a" || got.PartsList[0].Quantity != 1 {
		t.Errorf("Expected store to hold its own copy, got %+v", got)
	}

	got.PartsList[0].Quantity = 77
	all := s.All()
	if all[0].PartsList[0].Quantity != 1 {
		t.Error("Expected returned blueprints to be copies")
	}
}

func TestBuildStoreReset(t *testing.T) {
	s := NewBuildStore()
	s.Append(blueprint("a", models.SizeMedium))
	s.Reset()

	if s.Len() != 0 || s.SelectedIndex() != -1 {
		t.Errorf("Expected empty store after reset, got len=%d selected=%d", s.Len(), s.SelectedIndex())
	}
	if _, ok := s.Current(); ok {
		t.Error("Expected no current blueprint after reset")
	}
}
