package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidbz/cthai/internal/observability"
)

const (
	DefaultImageModel  = "google/imagen-4-fast"
	DefaultAspectRatio = "1:1"
	DefaultVideoModel  = "bytedance/seedance-1-pro"
	DefaultResolution  = "1920x1080"
	DefaultDuration    = "5"
	DefaultSpeechModel = "fal-ai/playai/tts/v3"
	DefaultVoice       = "Jennifer (English (US)/American)"
	DefaultVisionModel = "grok-2-vision-1212"

	publicIDPrefix = "cthai"
)

var supportedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"4:3":  {},
	"3:4":  {},
	"16:9": {},
	"9:16": {},
}

// NormalizeAspectRatio maps unknown aspect ratios to the square default.
func NormalizeAspectRatio(ratio string) string {
	if _, ok := supportedAspectRatios[ratio]; ok {
		return ratio
	}
	return DefaultAspectRatio
}

// MediaService runs the generate → upload → persist pipeline for every
// media endpoint. Vendors left nil are reported as unavailable.
type MediaService struct {
	store   ArtifactStore
	storage ObjectStorage
	images  ImageGenerator
	videos  VideoGenerator
	speech  SpeechSynthesizer
	vision  VisionAnalyzer
}

// NewMediaService creates a new media service (DI constructor).
func NewMediaService(
	store ArtifactStore,
	storage ObjectStorage,
	images ImageGenerator,
	videos VideoGenerator,
	speech SpeechSynthesizer,
	vision VisionAnalyzer,
) *MediaService {
	return &MediaService{
		store:   store,
		storage: storage,
		images:  images,
		videos:  videos,
		speech:  speech,
		vision:  vision,
	}
}

// GenerateImage creates an image for the user and persists it.
func (s *MediaService) GenerateImage(ctx context.Context, userID string, req *ImageRequest) (*Artifact, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if s.images == nil || !s.ready() {
		return nil, ErrServiceUnavailable
	}

	if req.Model == "" {
		req.Model = DefaultImageModel
	}
	req.AspectRatio = NormalizeAspectRatio(req.AspectRatio)

	sourceURL, err := s.images.GenerateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	return s.persist(ctx, sourceURL, &Artifact{
		UserID:     userID,
		Kind:       ArtifactImage,
		Prompt:     req.Prompt,
		Model:      req.Model,
		Resolution: req.AspectRatio,
	})
}

// GenerateVideo creates a video for the user and persists it.
func (s *MediaService) GenerateVideo(ctx context.Context, userID string, req *VideoRequest) (*Artifact, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if s.videos == nil || !s.ready() {
		return nil, ErrServiceUnavailable
	}

	if req.Model == "" {
		req.Model = DefaultVideoModel
	}
	if req.Resolution == "" {
		req.Resolution = DefaultResolution
	}
	if req.Duration == "" {
		req.Duration = DefaultDuration
	}

	sourceURL, err := s.videos.GenerateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("video generation failed: %w", err)
	}

	return s.persist(ctx, sourceURL, &Artifact{
		UserID:     userID,
		Kind:       ArtifactVideo,
		Prompt:     req.Prompt,
		Model:      req.Model,
		Resolution: req.Resolution,
		Duration:   req.Duration,
	})
}

// GenerateAudio synthesizes speech for the user and persists it.
func (s *MediaService) GenerateAudio(ctx context.Context, userID string, req *SpeechRequest) (*Artifact, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if s.speech == nil || !s.ready() {
		return nil, ErrServiceUnavailable
	}

	if req.Model == "" {
		req.Model = DefaultSpeechModel
	}
	if req.Voice == "" {
		req.Voice = DefaultVoice
	}

	sourceURL, err := s.speech.Synthesize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	return s.persist(ctx, sourceURL, &Artifact{
		UserID: userID,
		Kind:   ArtifactAudio,
		Prompt: req.Prompt,
		Model:  req.Model,
		Voice:  req.Voice,
	})
}

// AnalyzeImage answers a prompt about an uploaded image and persists both.
func (s *MediaService) AnalyzeImage(ctx context.Context, userID string, req *VisionRequest) (*Artifact, error) {
	if req == nil || req.ImageDataURI == "" || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: image and prompt are required", ErrInvalidRequest)
	}
	if s.vision == nil || !s.ready() {
		return nil, ErrServiceUnavailable
	}

	if req.Model == "" {
		req.Model = DefaultVisionModel
	}

	answer, err := s.vision.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}

	return s.persist(ctx, req.ImageDataURI, &Artifact{
		UserID:   userID,
		Kind:     ArtifactVision,
		Prompt:   req.Prompt,
		Model:    req.Model,
		Response: answer,
	})
}

// List returns the user's artifacts of one kind.
func (s *MediaService) List(ctx context.Context, userID string, kind ArtifactKind, limit int) ([]*Artifact, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown artifact kind %q", ErrInvalidRequest, kind)
	}
	if s.store == nil {
		return nil, ErrServiceUnavailable
	}

	artifacts, err := s.store.ListByUser(ctx, userID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return artifacts, nil
}

func (s *MediaService) ready() bool {
	return s.store != nil && s.storage != nil
}

// persist uploads the source and records the artifact. The uploaded object is
// removed again when the row cannot be written.
func (s *MediaService) persist(ctx context.Context, source string, artifact *Artifact) (*Artifact, error) {
	logger := observability.FromContext(ctx)

	publicID := fmt.Sprintf("%s_%s_%s", publicIDPrefix, artifact.Kind, uuid.New().String())

	logger.Info("uploading artifact",
		observability.String("kind", string(artifact.Kind)),
		observability.String("public_id", publicID),
	)

	stored, err := s.storage.Upload(ctx, source, publicID, artifact.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", artifact.Kind, err)
	}

	artifact.URL = stored.URL
	artifact.StorageID = stored.ID

	if insertErr := s.store.Insert(ctx, artifact); insertErr != nil {
		logger.Error("failed to save artifact, removing upload",
			observability.Error(insertErr),
			observability.String("storage_id", stored.ID),
		)
		if deleteErr := s.storage.Delete(ctx, stored.ID, artifact.Kind); deleteErr != nil {
			logger.Error("failed to remove orphaned upload", observability.Error(deleteErr))
		}
		return nil, fmt.Errorf("failed to save %s: %w", artifact.Kind, insertErr)
	}

	logger.Info("artifact saved",
		observability.String("artifact_id", artifact.ID),
		observability.String("kind", string(artifact.Kind)),
	)

	return artifact, nil
}
