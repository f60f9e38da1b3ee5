package domain

import "context"

// ChatProvider streams assistant text for a conversation.
type ChatProvider interface {
	// Stream opens the upstream call and returns its text fragments in arrival order.
	// The channel is closed when the upstream finishes, fails, or ctx ends.
	Stream(ctx context.Context, req *RelayRequest) (<-chan StreamChunk, error)

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider serves the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels lists every model the provider serves.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available chat providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider ChatProvider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (ChatProvider, error)

	// GetByModel retrieves the provider serving the given model.
	GetByModel(ctx context.Context, model string) (ChatProvider, error)

	// List returns all registered provider names.
	List(ctx context.Context) ([]string, error)

	// Models returns every registered model, sorted.
	Models(ctx context.Context) []string
}

// ImageGenerator produces an image and returns where the vendor hosts it.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (string, error)
}

// VideoGenerator produces a video and returns where the vendor hosts it.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req *VideoRequest) (string, error)
}

// SpeechSynthesizer turns text into audio and returns where the vendor hosts it.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req *SpeechRequest) (string, error)
}

// VisionAnalyzer answers a prompt about an image.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, req *VisionRequest) (string, error)
}

// ObjectStorage keeps generated media on a CDN.
type ObjectStorage interface {
	// Upload copies source (a URL or data URI) under the desired ID.
	Upload(ctx context.Context, source, publicID string, kind ArtifactKind) (*StoredObject, error)

	// Delete removes a previously uploaded object.
	Delete(ctx context.Context, id string, kind ArtifactKind) error
}

// ArtifactStore persists artifact metadata per user.
type ArtifactStore interface {
	// Insert saves the artifact, filling in its ID and CreatedAt.
	Insert(ctx context.Context, artifact *Artifact) error

	// ListByUser returns the user's artifacts of one kind, newest first.
	ListByUser(ctx context.Context, userID string, kind ArtifactKind, limit int) ([]*Artifact, error)
}
