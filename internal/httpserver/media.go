package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/davidbz/cthai/internal/auth"
	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

const (
	maxVisionUpload   = 10 << 20
	defaultListLimit  = 50
	maxListLimit      = 200
	bodyPromptMissing = "Prompt is required"
	bodyImageMissing  = "Image and prompt are required"
)

// HandleGenerateImage generates, uploads and records an image.
func (h *Handler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req domain.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, bodyPromptMissing)
		return
	}

	artifact, err := h.media.GenerateImage(r.Context(), auth.CurrentUser(r.Context()).ID, &req)
	if err != nil {
		writeMediaError(w, r, err, bodyPromptMissing, "Failed to generate image")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":     true,
		"imageUrl":    artifact.URL,
		"imageId":     artifact.ID,
		"prompt":      artifact.Prompt,
		"aspectRatio": artifact.Resolution,
		"model":       artifact.Model,
	})
}

// HandleGenerateVideo generates, uploads and records a video.
func (h *Handler) HandleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req domain.VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, bodyPromptMissing)
		return
	}

	artifact, err := h.media.GenerateVideo(r.Context(), auth.CurrentUser(r.Context()).ID, &req)
	if err != nil {
		writeMediaError(w, r, err, bodyPromptMissing, "Failed to generate video")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":    true,
		"videoUrl":   artifact.URL,
		"videoId":    artifact.ID,
		"prompt":     artifact.Prompt,
		"resolution": artifact.Resolution,
		"duration":   artifact.Duration,
		"model":      artifact.Model,
	})
}

// HandleGenerateAudio synthesizes, uploads and records speech.
func (h *Handler) HandleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req domain.SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, bodyPromptMissing)
		return
	}

	artifact, err := h.media.GenerateAudio(r.Context(), auth.CurrentUser(r.Context()).ID, &req)
	if err != nil {
		writeMediaError(w, r, err, bodyPromptMissing, "Failed to generate audio")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":  true,
		"audioUrl": artifact.URL,
		"audioId":  artifact.ID,
		"prompt":   artifact.Prompt,
		"voice":    artifact.Voice,
		"model":    artifact.Model,
	})
}

// HandleGenerateVision answers a prompt about an uploaded image. The request
// is multipart with "image", "prompt" and an optional "model" part.
func (h *Handler) HandleGenerateVision(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxVisionUpload)
	if err := r.ParseMultipartForm(maxVisionUpload); err != nil {
		observability.FromContext(r.Context()).Info("unreadable vision upload", observability.Error(err))
		writeJSONError(w, r, http.StatusBadRequest, bodyImageMissing)
		return
	}

	dataURI, err := imageDataURI(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, bodyImageMissing)
		return
	}

	artifact, err := h.media.AnalyzeImage(r.Context(), auth.CurrentUser(r.Context()).ID, &domain.VisionRequest{
		ImageDataURI: dataURI,
		Prompt:       r.FormValue("prompt"),
		Model:        r.FormValue("model"),
	})
	if err != nil {
		writeMediaError(w, r, err, bodyImageMissing, "Failed to analyze image")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":    true,
		"imageUrl":   artifact.URL,
		"analysisId": artifact.ID,
		"prompt":     artifact.Prompt,
		"response":   artifact.Response,
		"model":      artifact.Model,
	})
}

// HandleListArtifacts returns the caller's artifacts of the kind in ?kind=.
func (h *Handler) HandleListArtifacts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	kind := domain.ArtifactKind(r.URL.Query().Get("kind"))
	artifacts, err := h.media.List(r.Context(), auth.CurrentUser(r.Context()).ID, kind, limit)
	if err != nil {
		writeMediaError(w, r, err, "Unknown artifact kind", "Failed to list artifacts")
		return
	}

	if artifacts == nil {
		artifacts = []*domain.Artifact{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"artifacts": artifacts})
}

// imageDataURI reads the uploaded image part into a data URI.
func imageDataURI(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty image")
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}

	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data)), nil
}

// writeMediaError maps a media pipeline failure to its JSON response.
func writeMediaError(w http.ResponseWriter, r *http.Request, err error, invalidMessage, failureMessage string) {
	logger := observability.FromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		logger.Info("media request rejected", observability.Error(err))
		writeJSONError(w, r, http.StatusBadRequest, invalidMessage)
	case errors.Is(err, domain.ErrServiceUnavailable):
		logger.Warn("media vendor not configured")
		writeJSONError(w, r, http.StatusServiceUnavailable, bodyServiceUnavailable)
	default:
		logger.Error("media request failed", observability.Error(err))
		writeJSONError(w, r, http.StatusInternalServerError, failureMessage)
	}
}
