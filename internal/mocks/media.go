package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davidbz/cthai/internal/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockImageGenerator is a mock implementation of domain.ImageGenerator.
type MockImageGenerator struct {
	mock.Mock
}

func NewMockImageGenerator(t testingT) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, req *domain.ImageRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockVideoGenerator is a mock implementation of domain.VideoGenerator.
type MockVideoGenerator struct {
	mock.Mock
}

func NewMockVideoGenerator(t testingT) *MockVideoGenerator {
	m := &MockVideoGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVideoGenerator) GenerateVideo(ctx context.Context, req *domain.VideoRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockSpeechSynthesizer is a mock implementation of domain.SpeechSynthesizer.
type MockSpeechSynthesizer struct {
	mock.Mock
}

func NewMockSpeechSynthesizer(t testingT) *MockSpeechSynthesizer {
	m := &MockSpeechSynthesizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSpeechSynthesizer) Synthesize(ctx context.Context, req *domain.SpeechRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockVisionAnalyzer is a mock implementation of domain.VisionAnalyzer.
type MockVisionAnalyzer struct {
	mock.Mock
}

func NewMockVisionAnalyzer(t testingT) *MockVisionAnalyzer {
	m := &MockVisionAnalyzer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVisionAnalyzer) Analyze(ctx context.Context, req *domain.VisionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockObjectStorage is a mock implementation of domain.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func NewMockObjectStorage(t testingT) *MockObjectStorage {
	m := &MockObjectStorage{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockObjectStorage) Upload(
	ctx context.Context,
	source, publicID string,
	kind domain.ArtifactKind,
) (*domain.StoredObject, error) {
	args := m.Called(ctx, source, publicID, kind)
	var obj *domain.StoredObject
	if v := args.Get(0); v != nil {
		obj = v.(*domain.StoredObject)
	}
	return obj, args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, id string, kind domain.ArtifactKind) error {
	return m.Called(ctx, id, kind).Error(0)
}

// MockArtifactStore is a mock implementation of domain.ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func NewMockArtifactStore(t testingT) *MockArtifactStore {
	m := &MockArtifactStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockArtifactStore) Insert(ctx context.Context, artifact *domain.Artifact) error {
	return m.Called(ctx, artifact).Error(0)
}

func (m *MockArtifactStore) ListByUser(
	ctx context.Context,
	userID string,
	kind domain.ArtifactKind,
	limit int,
) ([]*domain.Artifact, error) {
	args := m.Called(ctx, userID, kind, limit)
	var artifacts []*domain.Artifact
	if v := args.Get(0); v != nil {
		artifacts = v.([]*domain.Artifact)
	}
	return artifacts, args.Error(1)
}
