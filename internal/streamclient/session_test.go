package streamclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/streamclient"
)

type recorder struct {
	mu          sync.Mutex
	transcripts []streamclient.Transcript
}

func (r *recorder) record(t streamclient.Transcript) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, t)
}

func (r *recorder) all() []streamclient.Transcript {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]streamclient.Transcript(nil), r.transcripts...)
}

func relay(t *testing.T, handler http.HandlerFunc) *streamclient.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return streamclient.NewClient(srv.URL+"/api/chat", srv.Client())
}

func writeFragments(w http.ResponseWriter, fragments ...string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher := w.(http.Flusher)
	for _, f := range fragments {
		_, _ = io.WriteString(w, f)
		flusher.Flush()
	}
}

func TestSession_CommitsCompletedReply(t *testing.T) {
	var got domain.RelayRequest
	client := relay(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeFragments(w, "Hel", "lo!")
	})
	rec := &recorder{}
	session := streamclient.NewSession(client, "grok-4", "Be brief.", rec.record)

	outcome, err := session.Send(context.Background(), "Hi")

	require.NoError(t, err)
	require.Equal(t, streamclient.OutcomeCompleted, outcome.Kind)
	require.Equal(t, "Hello!", outcome.Message.Content)
	require.Equal(t, domain.RoleAssistant, outcome.Message.Role)
	require.Equal(t, streamclient.StateSettled, session.State())

	require.Equal(t, "grok-4", got.Model)
	require.Equal(t, "Be brief.", got.SystemPrompt)
	require.Equal(t, []domain.ConversationTurn{{Role: domain.RoleUser, Content: "Hi"}}, got.Turns)

	transcripts := rec.all()
	require.NotEmpty(t, transcripts)
	last := transcripts[len(transcripts)-1]
	require.True(t, last.Complete)
	require.Equal(t, "Hello!", last.Text)
	for _, tr := range transcripts[:len(transcripts)-1] {
		require.False(t, tr.Complete)
	}

	messages := session.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "Hi", messages[0].Content)
	require.Equal(t, "Hello!", messages[1].Content)
}

func TestSession_MultibyteAcrossChunks(t *testing.T) {
	client := relay(t, func(w http.ResponseWriter, _ *http.Request) {
		writeFragments(w, "caf\xc3", "\xa9 \xf0\x9f", "\x8d\x95")
	})
	session := streamclient.NewSession(client, "grok-4", "", nil)

	outcome, err := session.Send(context.Background(), "menu?")

	require.NoError(t, err)
	require.Equal(t, streamclient.OutcomeCompleted, outcome.Kind)
	require.Equal(t, "café 🍕", outcome.Message.Content)
}

func TestSession_CancelDiscardsPartialText(t *testing.T) {
	client := relay(t, func(w http.ResponseWriter, r *http.Request) {
		writeFragments(w, "Hel")
		<-r.Context().Done()
	})

	var session *streamclient.Session
	rec := &recorder{}
	session = streamclient.NewSession(client, "grok-4", "", func(tr streamclient.Transcript) {
		rec.record(tr)
		if !tr.Complete {
			require.True(t, session.Cancel())
		}
	})

	outcome, err := session.Send(context.Background(), "Hi")

	require.NoError(t, err)
	require.Equal(t, streamclient.OutcomeCancelled, outcome.Kind)
	require.Equal(t, streamclient.CancelledMessage, outcome.Message.Content)
	require.False(t, session.Cancel())

	messages := session.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, streamclient.CancelledMessage, messages[1].Content)

	transcripts := rec.all()
	require.Equal(t, streamclient.Transcript{Text: streamclient.CancelledMessage, Complete: true}, transcripts[len(transcripts)-1])
}

func TestSession_UpstreamRejection(t *testing.T) {
	client := relay(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "rate limited")
	})
	session := streamclient.NewSession(client, "grok-4", "", nil)

	outcome, err := session.Send(context.Background(), "Hi")

	require.NoError(t, err)
	require.Equal(t, streamclient.OutcomeFailed, outcome.Kind)
	require.Equal(t, streamclient.FailedMessage, outcome.Message.Content)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, outcome.Err, &upstream)
	require.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	require.Equal(t, "rate limited", string(upstream.Body))
}

func TestSession_NoResponseBody(t *testing.T) {
	client := relay(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	session := streamclient.NewSession(client, "grok-4", "", nil)

	outcome, err := session.Send(context.Background(), "Hi")

	require.NoError(t, err)
	require.Equal(t, streamclient.OutcomeFailed, outcome.Kind)
	require.ErrorIs(t, outcome.Err, domain.ErrNoResponseBody)
	require.Equal(t, streamclient.FailedMessage, outcome.Message.Content)
}

func TestSession_RejectsConcurrentSend(t *testing.T) {
	release := make(chan struct{})
	client := relay(t, func(w http.ResponseWriter, r *http.Request) {
		writeFragments(w, "working")
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	var session *streamclient.Session
	var busyErr error
	session = streamclient.NewSession(client, "grok-4", "", func(tr streamclient.Transcript) {
		if !tr.Complete && busyErr == nil {
			_, busyErr = session.Send(context.Background(), "again")
			close(release)
		}
	})

	outcome, err := session.Send(context.Background(), "Hi")

	require.NoError(t, err)
	require.ErrorIs(t, busyErr, streamclient.ErrRequestInFlight)
	require.Equal(t, streamclient.OutcomeCompleted, outcome.Kind)
	require.Equal(t, "working", outcome.Message.Content)
	require.Len(t, session.Messages(), 2)
}

func TestSession_SendAfterSettle(t *testing.T) {
	var turns []int
	client := relay(t, func(w http.ResponseWriter, r *http.Request) {
		var req domain.RelayRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		turns = append(turns, len(req.Turns))
		writeFragments(w, "ok")
	})
	session := streamclient.NewSession(client, "grok-4", "", nil)

	_, err := session.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = session.Send(context.Background(), "two")
	require.NoError(t, err)

	require.Equal(t, []int{1, 3}, turns)
	require.Len(t, session.Messages(), 4)
}
