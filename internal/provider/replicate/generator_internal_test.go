package replicate //nolint:testpackage // Need access to unexported imageInput

import (
	"testing"

	"github.com/replicate/replicate-go"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/domain"
)

func TestImageInput(t *testing.T) {
	tests := []struct {
		name string
		req  domain.ImageRequest
		want replicate.PredictionInput
	}{
		{
			name: "imagen maps aspect ratio",
			req:  domain.ImageRequest{Prompt: "fox", Model: "google/imagen-4-fast", AspectRatio: "16:9"},
			want: replicate.PredictionInput{
				"prompt":              "fox",
				"aspect_ratio":        "16:9",
				"output_format":       "jpg",
				"safety_filter_level": "block_only_high",
			},
		},
		{
			name: "imagen falls back to square",
			req:  domain.ImageRequest{Prompt: "fox", Model: "google/imagen-4-fast", AspectRatio: "7:3"},
			want: replicate.PredictionInput{
				"prompt":              "fox",
				"aspect_ratio":        "1:1",
				"output_format":       "jpg",
				"safety_filter_level": "block_only_high",
			},
		},
		{
			name: "flux takes prompt only",
			req:  domain.ImageRequest{Prompt: "fox", Model: "black-forest-labs/flux-schnell", AspectRatio: "4:3"},
			want: replicate.PredictionInput{"prompt": "fox"},
		},
		{
			name: "stability square",
			req:  domain.ImageRequest{Prompt: "fox", Model: "stability-ai/sdxl", AspectRatio: "1:1"},
			want: replicate.PredictionInput{"prompt": "fox", "width": 1024, "height": 1024},
		},
		{
			name: "stability landscape",
			req:  domain.ImageRequest{Prompt: "fox", Model: "stability-ai/sdxl", AspectRatio: "4:3"},
			want: replicate.PredictionInput{"prompt": "fox", "width": 1024, "height": 768},
		},
		{
			name: "stability portrait",
			req:  domain.ImageRequest{Prompt: "fox", Model: "stability-ai/sdxl", AspectRatio: "9:16"},
			want: replicate.PredictionInput{"prompt": "fox", "width": 768, "height": 1024},
		},
		{
			name: "runway landscape",
			req:  domain.ImageRequest{Prompt: "fox", Model: "runwayml/sd", AspectRatio: "4:3"},
			want: replicate.PredictionInput{"prompt": "fox", "width": 768, "height": 512},
		},
		{
			name: "runway portrait",
			req:  domain.ImageRequest{Prompt: "fox", Model: "runwayml/sd", AspectRatio: "16:9"},
			want: replicate.PredictionInput{"prompt": "fox", "width": 512, "height": 768},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, imageInput(&tt.req))
		})
	}
}

func TestNewGenerator_MissingToken(t *testing.T) {
	generator, err := NewGenerator(Config{})

	require.Error(t, err)
	require.Nil(t, generator)
}

func TestNewGenerator(t *testing.T) {
	generator, err := NewGenerator(Config{APIToken: "r8_test"})

	require.NoError(t, err)
	require.NotNil(t, generator)
}
