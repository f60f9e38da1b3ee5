// Package replicate generates images and videos on Replicate-hosted models.
package replicate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/replicate/replicate-go"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

const (
	modelImagen4Fast  = "google/imagen-4-fast"
	modelFluxSchnell  = "black-forest-labs/flux-schnell"
	stabilityPrefix   = "stability-ai/"
	runwayPrefix      = "runwayml/"
	imageOutputFormat = "jpg"
	imageSafetyLevel  = "block_only_high"
)

// Generator implements domain.ImageGenerator and domain.VideoGenerator.
type Generator struct {
	client *replicate.Client
}

// NewGenerator creates a new Replicate generator.
func NewGenerator(config Config) (*Generator, error) {
	if config.APIToken == "" {
		return nil, errors.New("Replicate API token is required")
	}

	opts := []replicate.ClientOption{replicate.WithToken(config.APIToken)}
	if config.BaseURL != "" {
		opts = append(opts, replicate.WithBaseURL(config.BaseURL))
	}

	client, err := replicate.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}

	return &Generator{client: client}, nil
}

// GenerateImage runs the requested image model and returns the output URL.
func (g *Generator) GenerateImage(ctx context.Context, req *domain.ImageRequest) (string, error) {
	return g.run(ctx, req.Model, imageInput(req))
}

// GenerateVideo runs the requested video model and returns the output URL.
func (g *Generator) GenerateVideo(ctx context.Context, req *domain.VideoRequest) (string, error) {
	return g.run(ctx, req.Model, replicate.PredictionInput{"prompt": req.Prompt})
}

func (g *Generator) run(ctx context.Context, model string, input replicate.PredictionInput) (string, error) {
	logger := observability.FromContext(ctx)
	logger.Info("running replicate model", observability.String("model", model))

	output, err := g.client.Run(ctx, model, input, nil)
	if err != nil {
		return "", fmt.Errorf("replicate run failed: %w", err)
	}

	url, err := domain.ResolveOutputURL(output)
	if err != nil {
		logger.Error("unexpected replicate output", observability.Error(err))
		return "", err
	}
	return url, nil
}

// imageInput builds the model-specific input for an image request.
func imageInput(req *domain.ImageRequest) replicate.PredictionInput {
	ratio := domain.NormalizeAspectRatio(req.AspectRatio)

	switch {
	case req.Model == modelImagen4Fast:
		return replicate.PredictionInput{
			"prompt":              req.Prompt,
			"aspect_ratio":        ratio,
			"output_format":       imageOutputFormat,
			"safety_filter_level": imageSafetyLevel,
		}
	case req.Model == modelFluxSchnell:
		return replicate.PredictionInput{"prompt": req.Prompt}
	case strings.HasPrefix(req.Model, stabilityPrefix):
		width, height := dimensions(ratio, 1024, 768)
		return replicate.PredictionInput{"prompt": req.Prompt, "width": width, "height": height}
	case strings.HasPrefix(req.Model, runwayPrefix):
		width, height := dimensions(ratio, 512, 768)
		return replicate.PredictionInput{"prompt": req.Prompt, "width": width, "height": height}
	default:
		return replicate.PredictionInput{"prompt": req.Prompt}
	}
}

// dimensions picks width and height for models that take pixel sizes.
// Square is base x base; 4:3 is the landscape pair; everything else portrait.
func dimensions(ratio string, base, other int) (int, int) {
	switch ratio {
	case "1:1":
		return base, base
	case "4:3":
		return max(base, other), min(base, other)
	default:
		return min(base, other), max(base, other)
	}
}
