// Package grok relays chat conversations to the x.ai chat-completions API
// and re-frames its event stream into plain assistant text.
package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

const (
	providerName = "grok"

	// ModelGrok4 is the only model the relay serves.
	ModelGrok4 = "grok-4"

	readBufferSize = 4096
)

// Provider implements domain.ChatProvider over a raw HTTP stream.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	models     []string
}

// NewProvider creates a new grok provider. A missing API key is not an error
// here; Stream fails fast with domain.ErrServiceUnavailable instead.
func NewProvider(config Config) *Provider {
	return &Provider{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{},
		models:     []string{ModelGrok4},
	}
}

type chatRequest struct {
	Model    string                    `json:"model"`
	Messages []domain.ConversationTurn `json:"messages"`
	Stream   bool                      `json:"stream"`
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// IsModelSupported checks if the provider serves the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return false
}

// SupportedModels lists every model the provider serves.
func (p *Provider) SupportedModels(_ context.Context) []string {
	out := make([]string, len(p.models))
	copy(out, p.models)
	return out
}

// Stream opens the upstream call and re-frames it in a background goroutine.
// A non-success upstream status is returned as *domain.UpstreamError with the
// response body untouched.
func (p *Provider) Stream(ctx context.Context, req *domain.RelayRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", domain.ErrInvalidRequest)
	}

	if p.apiKey == "" {
		observability.FromContext(ctx).Warn("GROK_API_KEY is not configured")
		return nil, domain.ErrServiceUnavailable
	}

	//nolint:bodyclose // Response body is closed in processStreamResponse goroutine
	resp, err := p.executeStreamRequest(ctx, chatRequest{
		Model:    ModelGrok4,
		Messages: req.UpstreamMessages(),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan domain.StreamChunk)
	go p.processStreamResponse(ctx, resp, chunks)

	return chunks, nil
}

// executeStreamRequest creates and executes the HTTP request for streaming.
func (p *Provider) executeStreamRequest(ctx context.Context, req chatRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/chat/completions",
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		observability.FromContext(ctx).Warn("upstream rejected chat request",
			observability.Int("status", resp.StatusCode),
		)
		return nil, &domain.UpstreamError{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}
	}

	return resp, nil
}

// processStreamResponse reads the body and forwards each content delta.
// The channel is unbuffered so a slow reader throttles upstream reads.
func (p *Provider) processStreamResponse(
	ctx context.Context,
	resp *http.Response,
	chunks chan<- domain.StreamChunk,
) {
	defer close(chunks)
	defer resp.Body.Close()

	reframer := NewReframer()
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			deltas, done := reframer.Feed(buf[:n])
			for _, delta := range deltas {
				if !send(ctx, chunks, domain.StreamChunk{Delta: delta}) {
					return
				}
			}
			if done {
				send(ctx, chunks, domain.StreamChunk{Done: true})
				return
			}
		}

		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) {
			if pending := reframer.Pending(); pending > 0 {
				observability.FromContext(ctx).Debug("discarding unterminated trailing line",
					observability.Int("bytes", pending),
				)
			}
			return
		}

		if ctx.Err() != nil {
			return
		}

		observability.FromContext(ctx).Error("upstream stream failed", observability.Error(readErr))
		send(ctx, chunks, domain.StreamChunk{Error: fmt.Errorf("%w: %w", domain.ErrStreamRead, readErr)})
		return
	}
}

// send delivers chunk unless ctx ends first.
func send(ctx context.Context, chunks chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
