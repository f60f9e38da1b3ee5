// Package mocks holds testify mocks for the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/cthai/internal/domain"
)

// MockChatProvider is a mock implementation of domain.ChatProvider.
type MockChatProvider struct {
	mock.Mock
}

// NewMockChatProvider creates a mock that asserts its expectations on cleanup.
func NewMockChatProvider(t testingT) *MockChatProvider {
	m := &MockChatProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatProvider) Stream(ctx context.Context, req *domain.RelayRequest) (<-chan domain.StreamChunk, error) {
	args := m.Called(ctx, req)
	var chunks <-chan domain.StreamChunk
	if v := args.Get(0); v != nil {
		chunks = v.(<-chan domain.StreamChunk)
	}
	return chunks, args.Error(1)
}

func (m *MockChatProvider) Name() string {
	return m.Called().String(0)
}

func (m *MockChatProvider) IsModelSupported(ctx context.Context, model string) bool {
	return m.Called(ctx, model).Bool(0)
}

func (m *MockChatProvider) SupportedModels(ctx context.Context) []string {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

// MockProviderRegistry is a mock implementation of domain.ProviderRegistry.
type MockProviderRegistry struct {
	mock.Mock
}

// NewMockProviderRegistry creates a mock that asserts its expectations on cleanup.
func NewMockProviderRegistry(t testingT) *MockProviderRegistry {
	m := &MockProviderRegistry{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProviderRegistry) Register(ctx context.Context, provider domain.ChatProvider) error {
	return m.Called(ctx, provider).Error(0)
}

func (m *MockProviderRegistry) Get(ctx context.Context, providerName string) (domain.ChatProvider, error) {
	args := m.Called(ctx, providerName)
	var provider domain.ChatProvider
	if v := args.Get(0); v != nil {
		provider = v.(domain.ChatProvider)
	}
	return provider, args.Error(1)
}

func (m *MockProviderRegistry) GetByModel(ctx context.Context, model string) (domain.ChatProvider, error) {
	args := m.Called(ctx, model)
	var provider domain.ChatProvider
	if v := args.Get(0); v != nil {
		provider = v.(domain.ChatProvider)
	}
	return provider, args.Error(1)
}

func (m *MockProviderRegistry) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var names []string
	if v := args.Get(0); v != nil {
		names = v.([]string)
	}
	return names, args.Error(1)
}

func (m *MockProviderRegistry) Models(ctx context.Context) []string {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}
