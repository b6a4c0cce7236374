package models

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Size
		wantErr  bool
	}{
		{name: "exact", input: "Medium", expected: SizeMedium},
		{name: "lowercase", input: "micro", expected: SizeMicro},
		{name: "padded", input: "  LARGE ", expected: SizeLarge},
		{name: "unknown", input: "Huge", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got size %s", tt.input, size)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if size != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, size)
			}
		})
	}
}

func TestWithValidationLeavesOriginalUntouched(t *testing.T) {
	original := &Blueprint{
		Title:         "Lighthouse",
		LegoImageData: "data:image/png;base64,AAAA",
		PartsList:     []Part{{PieceID: "3001", PieceName: "Brick 2 x 4", Color: "Red", Quantity: 2, EstimatedPrice: 0.1}},
		Size:          SizeMedium,
	}

	validated := original.WithValidation([]ValidatedPart{{Part: original.PartsList[0], RealPrice: 0.2}}, 0.4)

	if original.Validated() {
		t.Error("Expected original blueprint to remain unvalidated")
	}
	if !validated.Validated() {
		t.Fatal("Expected copy to be validated")
	}
	if *validated.RealTotalCost != 0.4 {
		t.Errorf("Expected real total 0.4, got %v", *validated.RealTotalCost)
	}

	validated.PartsList[0].Quantity = 99
	if original.PartsList[0].Quantity != 2 {
		t.Error("Expected parts list to be copied, not shared")
	}
	if validated.LegoImageData != original.LegoImageData {
		t.Error("Expected image data to carry over unchanged")
	}
}

func TestAvailabilityValid(t *testing.T) {
	for _, a := range []Availability{AvailabilityAvailable, AvailabilityRare, AvailabilityCheckAlternatives} {
		if !a.Valid() {
			t.Errorf("Expected %q to be valid", a)
		}
	}
	if Availability("Sold Out").Valid() {
		t.Error("Expected unknown availability to be invalid")
	}
}
