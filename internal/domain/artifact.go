package domain

import "time"

// ArtifactKind names what a generation endpoint produced.
type ArtifactKind string

const (
	ArtifactImage  ArtifactKind = "image"
	ArtifactVideo  ArtifactKind = "video"
	ArtifactAudio  ArtifactKind = "audio"
	ArtifactVision ArtifactKind = "vision"
)

// Valid reports whether k is a known kind.
func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactImage, ArtifactVideo, ArtifactAudio, ArtifactVision:
		return true
	default:
		return false
	}
}

// Artifact is a persisted generation result.
type Artifact struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	Kind       ArtifactKind `json:"kind"`
	URL        string       `json:"url"`
	StorageID  string       `json:"storageId"`
	Prompt     string       `json:"prompt"`
	Model      string       `json:"model"`
	Resolution string       `json:"resolution,omitempty"`
	Duration   string       `json:"duration,omitempty"`
	Voice      string       `json:"voice,omitempty"`
	Response   string       `json:"response,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// StoredObject is the CDN location of an uploaded object.
type StoredObject struct {
	URL string
	ID  string
}

// ImageRequest asks for a generated image.
type ImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Model       string `json:"model,omitempty"`
}

// VideoRequest asks for a generated video.
type VideoRequest struct {
	Prompt     string `json:"prompt"`
	Model      string `json:"model,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// SpeechRequest asks for synthesized speech.
type SpeechRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Voice  string `json:"voice,omitempty"`
}

// VisionRequest asks a question about an image given as a data URI.
type VisionRequest struct {
	ImageDataURI string
	Prompt       string
	Model        string
}
