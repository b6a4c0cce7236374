package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestConvertResponse(t *testing.T) {
	tests := []struct {
		name       string
		resp       *genai.GenerateContentResponse
		wantErr    bool
		wantTexts  int
		wantImages int
	}{
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name:    "empty content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			wantErr: true,
		},
		{
			name: "mixed parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{
					genai.Text("Here is your build"),
					genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
					genai.Text("!"),
				}},
			}}},
			wantTexts:  2,
			wantImages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := convertResponse(tt.resp)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(out.Texts) != tt.wantTexts {
				t.Errorf("Expected %d text parts, got %d", tt.wantTexts, len(out.Texts))
			}
			if len(out.Images) != tt.wantImages {
				t.Errorf("Expected %d images, got %d", tt.wantImages, len(out.Images))
			}
		})
	}
}
