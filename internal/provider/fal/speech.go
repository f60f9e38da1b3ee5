// Package fal synthesizes speech on fal.ai text-to-speech models.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

const (
	responseFormatURL = "url"
	audioURLPath      = "audio.url"
)

// Synthesizer implements domain.SpeechSynthesizer.
type Synthesizer struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSynthesizer creates a new fal.ai speech client.
func NewSynthesizer(config Config) (*Synthesizer, error) {
	if config.APIKey == "" {
		return nil, errors.New("FAL API key is required")
	}

	return &Synthesizer{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

type ttsRequest struct {
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize runs the model named in req and returns the hosted audio URL.
func (s *Synthesizer) Synthesize(ctx context.Context, req *domain.SpeechRequest) (string, error) {
	reqBody, err := json.Marshal(ttsRequest{
		Input:          req.Prompt,
		Voice:          req.Voice,
		ResponseFormat: responseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/"+strings.TrimLeft(req.Model, "/"),
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		observability.FromContext(ctx).Warn("fal rejected speech request",
			observability.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("FAL API error: %d - %s", resp.StatusCode, string(body))
	}

	audioURL := gjson.GetBytes(body, audioURLPath).String()
	if audioURL == "" {
		return "", fmt.Errorf("%w: response has no %s", domain.ErrUnrecognizedShape, audioURLPath)
	}

	return audioURL, nil
}
