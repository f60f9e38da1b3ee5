package domain

import (
	"context"
	"fmt"

	"github.com/davidbz/cthai/internal/observability"
)

// RelayService validates chat requests and hands them to the provider that
// serves the requested model.
type RelayService struct {
	registry ProviderRegistry
}

// NewRelayService creates a new relay service (DI constructor).
func NewRelayService(registry ProviderRegistry) *RelayService {
	return &RelayService{
		registry: registry,
	}
}

// Stream validates req and opens the upstream stream for it.
func (s *RelayService) Stream(ctx context.Context, req *RelayRequest) (<-chan StreamChunk, error) {
	provider, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	observability.FromContext(ctx).Info("routing chat request",
		observability.Int("turns", len(req.Turns)),
		observability.Bool("system_prompt", req.SystemPrompt != ""),
	)

	chunks, err := provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to stream from provider: %w", err)
	}
	return chunks, nil
}

// resolve checks the request shape, then the model.
func (s *RelayService) resolve(ctx context.Context, req *RelayRequest) (ChatProvider, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", ErrInvalidRequest)
	}

	if req.Turns == nil {
		return nil, fmt.Errorf("%w: messages must be an array", ErrInvalidRequest)
	}

	if req.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}

	for i, turn := range req.Turns {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: message %d has role %q", ErrInvalidRequest, i, turn.Role)
		}
	}

	provider, err := s.registry.GetByModel(ctx, req.Model)
	if err != nil {
		observability.FromContext(ctx).Info("unsupported model requested", observability.Error(err))
		return nil, &UnsupportedModelError{
			Model:     req.Model,
			Supported: s.registry.Models(ctx),
		}
	}

	return provider, nil
}
