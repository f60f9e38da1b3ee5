package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/mocks"
)

func TestRelayService_Stream_Delegates(t *testing.T) {
	registry := mocks.NewMockProviderRegistry(t)
	provider := mocks.NewMockChatProvider(t)

	req := &domain.RelayRequest{
		Turns: []domain.ConversationTurn{{Role: domain.RoleUser, Content: "Hi"}},
		Model: "grok-4",
	}

	chunks := make(chan domain.StreamChunk)
	close(chunks)
	var out <-chan domain.StreamChunk = chunks

	registry.On("GetByModel", mock.Anything, "grok-4").Return(provider, nil)
	provider.On("Name").Return("grok")
	provider.On("Stream", mock.Anything, req).Return(out, nil)

	service := domain.NewRelayService(registry)
	got, err := service.Stream(context.Background(), req)

	require.NoError(t, err)
	require.Equal(t, out, got)
}

func TestRelayService_Stream_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *domain.RelayRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing messages", req: &domain.RelayRequest{Model: "grok-4"}},
		{
			name: "missing model",
			req:  &domain.RelayRequest{Turns: []domain.ConversationTurn{}},
		},
		{
			name: "system role in turns",
			req: &domain.RelayRequest{
				Turns: []domain.ConversationTurn{{Role: domain.RoleSystem, Content: "x"}},
				Model: "grok-4",
			},
		},
		{
			name: "unknown role",
			req: &domain.RelayRequest{
				Turns: []domain.ConversationTurn{{Role: "tool", Content: "x"}},
				Model: "grok-4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewMockProviderRegistry(t)
			service := domain.NewRelayService(registry)

			chunks, err := service.Stream(context.Background(), tt.req)

			require.Nil(t, chunks)
			require.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestRelayService_Stream_EmptyTurnsAllowed(t *testing.T) {
	registry := mocks.NewMockProviderRegistry(t)
	provider := mocks.NewMockChatProvider(t)
	req := &domain.RelayRequest{Turns: []domain.ConversationTurn{}, Model: "grok-4"}

	registry.On("GetByModel", mock.Anything, "grok-4").Return(provider, nil)
	provider.On("Name").Return("grok")
	provider.On("Stream", mock.Anything, req).Return(nil, domain.ErrServiceUnavailable)

	_, err := domain.NewRelayService(registry).Stream(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestRelayService_Stream_UnsupportedModel(t *testing.T) {
	registry := mocks.NewMockProviderRegistry(t)

	registry.On("GetByModel", mock.Anything, "gpt-4").Return(nil, errors.New("no provider found for model: gpt-4"))
	registry.On("Models", mock.Anything).Return([]string{"grok-4"})

	service := domain.NewRelayService(registry)
	chunks, err := service.Stream(context.Background(), &domain.RelayRequest{
		Turns: []domain.ConversationTurn{{Role: domain.RoleUser, Content: "Hi"}},
		Model: "gpt-4",
	})

	require.Nil(t, chunks)
	require.ErrorIs(t, err, domain.ErrUnsupportedModel)

	var unsupported *domain.UnsupportedModelError
	require.True(t, errors.As(err, &unsupported))
	require.Equal(t, "gpt-4", unsupported.Model)
	require.Equal(t, "Only grok-4 is supported", unsupported.Message())
}

func TestRelayService_Stream_WrapsProviderError(t *testing.T) {
	registry := mocks.NewMockProviderRegistry(t)
	provider := mocks.NewMockChatProvider(t)
	req := &domain.RelayRequest{
		Turns: []domain.ConversationTurn{{Role: domain.RoleUser, Content: "Hi"}},
		Model: "grok-4",
	}
	upstream := &domain.UpstreamError{StatusCode: 429, Body: []byte("slow down")}

	registry.On("GetByModel", mock.Anything, "grok-4").Return(provider, nil)
	provider.On("Name").Return("grok")
	provider.On("Stream", mock.Anything, req).Return(nil, upstream)

	_, err := domain.NewRelayService(registry).Stream(context.Background(), req)

	var got *domain.UpstreamError
	require.True(t, errors.As(err, &got))
	require.Equal(t, 429, got.StatusCode)
}

func TestRelayRequest_UpstreamMessages(t *testing.T) {
	req := &domain.RelayRequest{
		Turns: []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "Hi"},
			{Role: domain.RoleAssistant, Content: "Hello"},
		},
		SystemPrompt: "Be terse.",
	}

	require.Equal(t, []domain.ConversationTurn{
		{Role: domain.RoleSystem, Content: "Be terse."},
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "Hello"},
	}, req.UpstreamMessages())

	req.SystemPrompt = ""
	require.Len(t, req.UpstreamMessages(), 2)
}
