// Package openai answers questions about images through an OpenAI-compatible
// chat completions API using the official SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

// Analyzer implements domain.VisionAnalyzer.
type Analyzer struct {
	client openai.Client
}

// NewAnalyzer creates a new vision analyzer.
func NewAnalyzer(config Config) (*Analyzer, error) {
	if config.APIKey == "" {
		return nil, errors.New("vision API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Analyzer{
		client: openai.NewClient(opts...),
	}, nil
}

// Analyze sends the image and prompt as one user turn and returns the answer.
func (a *Analyzer) Analyze(ctx context.Context, req *domain.VisionRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling vision API", observability.String("model", req.Model))

	resp, err := a.client.Chat.Completions.New(ctx, toSDKParams(req))
	if err != nil {
		logger.Error("vision API call failed", observability.Error(err))
		return "", fmt.Errorf("vision API call failed: %w", err)
	}

	logger.Debug("vision API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from vision model")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// toSDKParams converts a vision request to SDK ChatCompletionNewParams.
func toSDKParams(req *domain.VisionRequest) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: req.ImageDataURI,
		}),
		openai.TextContentPart(req.Prompt),
	}

	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
	}
}
