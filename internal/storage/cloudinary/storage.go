// Package cloudinary stores generated media on the Cloudinary CDN.
package cloudinary

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

const (
	resourceImage = "image"
	resourceVideo = "video"
	destroyOK     = "ok"
	destroyAbsent = "not found"
)

// placement says where and as what an artifact kind is stored.
type placement struct {
	folder       string
	resourceType string
	format       string
}

// Audio is stored as a video resource, the only Cloudinary type that accepts it.
var placements = map[domain.ArtifactKind]placement{
	domain.ArtifactImage:  {folder: "cthai-images", resourceType: resourceImage, format: "jpg"},
	domain.ArtifactVision: {folder: "cthai-images", resourceType: resourceImage, format: "jpg"},
	domain.ArtifactVideo:  {folder: "cthai-videos", resourceType: resourceVideo, format: "mp4"},
	domain.ArtifactAudio:  {folder: "cthai-audios", resourceType: resourceVideo, format: "mp3"},
}

// Storage implements domain.ObjectStorage.
type Storage struct {
	cld *cloudinary.Cloudinary
}

// NewStorage creates a Cloudinary-backed object storage.
func NewStorage(config Config) (*Storage, error) {
	if !config.Enabled() {
		return nil, errors.New("cloudinary credentials are required")
	}

	cld, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	if config.UploadPrefix != "" {
		cld.Config.API.UploadPrefix = config.UploadPrefix
	}

	return &Storage{cld: cld}, nil
}

// Upload fetches source (a remote URL or a data URI) into the kind's folder.
func (s *Storage) Upload(
	ctx context.Context,
	source, publicID string,
	kind domain.ArtifactKind,
) (*domain.StoredObject, error) {
	place, err := placementFor(kind)
	if err != nil {
		return nil, err
	}

	res, err := s.cld.Upload.Upload(ctx, source, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       place.folder,
		ResourceType: place.resourceType,
		Format:       place.format,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload failed: %s", res.Error.Message)
	}

	observability.FromContext(ctx).Debug("uploaded to cloudinary",
		observability.String("public_id", res.PublicID),
		observability.String("resource_type", place.resourceType),
	)

	return &domain.StoredObject{
		URL: res.SecureURL,
		ID:  res.PublicID,
	}, nil
}

// Delete removes an uploaded object. Deleting a missing object succeeds.
func (s *Storage) Delete(ctx context.Context, id string, kind domain.ArtifactKind) error {
	place, err := placementFor(kind)
	if err != nil {
		return err
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     id,
		ResourceType: place.resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy failed: %s", res.Error.Message)
	}
	if res.Result != destroyOK && res.Result != destroyAbsent {
		return fmt.Errorf("cloudinary destroy returned %q", res.Result)
	}

	return nil
}

func placementFor(kind domain.ArtifactKind) (placement, error) {
	place, ok := placements[kind]
	if !ok {
		return placement{}, fmt.Errorf("%w: no storage placement for kind %q", domain.ErrInvalidRequest, kind)
	}
	return place, nil
}
