package openai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/provider/openai"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "grok-2-vision-1212",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": " A cat on a mat. "}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 6, "total_tokens": 18}
}`

func TestNewAnalyzer_MissingAPIKey(t *testing.T) {
	analyzer, err := openai.NewAnalyzer(openai.Config{})

	require.Error(t, err)
	require.Nil(t, analyzer)
	require.Contains(t, err.Error(), "vision API key is required")
}

func TestAnalyze_SendsImageAndPrompt(t *testing.T) {
	var gotBody []byte
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer server.Close()

	analyzer, err := openai.NewAnalyzer(openai.Config{
		APIKey:  "vision-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	require.NoError(t, err)

	answer, err := analyzer.Analyze(context.Background(), &domain.VisionRequest{
		ImageDataURI: "data:image/png;base64,iVBORw0KGgo=",
		Prompt:       "What is this?",
		Model:        "grok-2-vision-1212",
	})

	require.NoError(t, err)
	require.Equal(t, "A cat on a mat.", answer)
	require.Equal(t, "/chat/completions", gotPath)
	require.Equal(t, "Bearer vision-key", gotAuth)

	body := gjson.ParseBytes(gotBody)
	require.Equal(t, "grok-2-vision-1212", body.Get("model").String())
	require.Equal(t, "user", body.Get("messages.0.role").String())
	require.Equal(t, "data:image/png;base64,iVBORw0KGgo=",
		body.Get(`messages.0.content.#(type=="image_url").image_url.url`).String())
	require.Equal(t, "What is this?", body.Get(`messages.0.content.#(type=="text").text`).String())
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad image"}}`)
	}))
	defer server.Close()

	analyzer, err := openai.NewAnalyzer(openai.Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), &domain.VisionRequest{
		ImageDataURI: "data:image/png;base64,AA==",
		Prompt:       "?",
		Model:        "m",
	})

	require.ErrorContains(t, err, "vision API call failed")
}
