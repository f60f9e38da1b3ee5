package cloudinary_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/storage/cloudinary"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) *cloudinary.Storage {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	storage, err := cloudinary.NewStorage(cloudinary.Config{
		CloudName:    "demo",
		APIKey:       "key",
		APISecret:    "secret",
		UploadPrefix: server.URL,
	})
	require.NoError(t, err)
	return storage
}

func TestNewStorage_MissingCredentials(t *testing.T) {
	storage, err := cloudinary.NewStorage(cloudinary.Config{CloudName: "demo"})

	require.Error(t, err)
	require.Nil(t, storage)
}

func TestUpload_AudioUsesVideoResource(t *testing.T) {
	var gotPath, gotForm string

	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotForm = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w,
			`{"public_id":"cthai-audios/cthai_audio_1","secure_url":"https://res.cloudinary.com/demo/video/upload/a.mp3"}`)
	})

	obj, err := storage.Upload(context.Background(), "https://fal.media/a.mp3", "cthai_audio_1", domain.ArtifactAudio)

	require.NoError(t, err)
	require.Equal(t, "https://res.cloudinary.com/demo/video/upload/a.mp3", obj.URL)
	require.Equal(t, "cthai-audios/cthai_audio_1", obj.ID)
	require.True(t, strings.HasSuffix(gotPath, "/demo/video/upload"), gotPath)
	require.Contains(t, gotForm, "cthai-audios")
}

func TestUpload_ErrorResponse(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid image file"}}`)
	})

	obj, err := storage.Upload(context.Background(), "data:image/png;base64,AA==", "id", domain.ArtifactImage)

	require.Nil(t, obj)
	require.ErrorContains(t, err, "Invalid image file")
}

func TestUpload_UnknownKind(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := storage.Upload(context.Background(), "x", "id", "document")

	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		result  string
		wantErr bool
	}{
		{name: "deleted", result: "ok"},
		{name: "already gone", result: "not found"},
		{name: "unexpected", result: "error", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"result":"`+tt.result+`"}`)
			})

			err := storage.Delete(context.Background(), "cthai-videos/v", domain.ArtifactVideo)

			require.True(t, strings.HasSuffix(gotPath, "/demo/video/destroy"), gotPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
