package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
	"github.com/davidbz/cthai/internal/state"
)

const (
	bodyInvalidRequest     = "Invalid request"
	bodyServiceUnavailable = "Service temporarily unavailable"
	bodyInternalError      = "Internal server error"
)

// Handler handles HTTP requests.
type Handler struct {
	relay *domain.RelayService
	media *domain.MediaService
	state state.Store
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(relay *domain.RelayService, media *domain.MediaService, store state.Store) *Handler {
	return &Handler{
		relay: relay,
		media: media,
		state: store,
	}
}

// HandleChat relays a conversation to the chat provider and streams the
// assistant text back as plain UTF-8 bytes.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.FromContext(ctx).Info("undecodable chat request", observability.Error(err))
		writeText(w, http.StatusBadRequest, bodyInvalidRequest)
		return
	}

	ctx = observability.WithModel(ctx, req.Model)
	logger := observability.FromContext(ctx)
	logger.Info("chat request received",
		observability.Int("turns", len(req.Turns)),
	)

	chunks, err := h.relay.Stream(ctx, &req)
	if err != nil {
		writeRelayError(w, r, err)
		return
	}

	// The relay lives as long as the upstream stream, not the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		return
	}
	flusher.Flush()

	relayed := 0
	for {
		select {
		case <-ctx.Done():
			// Client disconnected or cancelled
			logger.Info("chat stream abandoned by client", observability.Int("bytes", relayed))
			return

		case chunk, chunkOk := <-chunks:
			if !chunkOk {
				logger.Info("chat stream closed by upstream", observability.Int("bytes", relayed))
				return
			}

			if chunk.Error != nil {
				logger.Error("chat stream failed", observability.Error(chunk.Error))
				// Abort the response so the client sees a read failure
				// instead of a clean end of stream.
				panic(http.ErrAbortHandler)
			}

			if chunk.Done {
				logger.Info("chat stream completed", observability.Int("bytes", relayed))
				return
			}

			n, writeErr := w.Write([]byte(chunk.Delta))
			relayed += n
			if writeErr != nil {
				logger.Info("client write failed", observability.Error(writeErr))
				return
			}
			flusher.Flush()
		}
	}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

// writeRelayError maps a rejected relay request to its wire response.
func writeRelayError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())

	var unsupported *domain.UnsupportedModelError
	var upstream *domain.UpstreamError

	switch {
	case errors.As(err, &unsupported):
		logger.Info("chat request rejected", observability.Error(err))
		writeText(w, http.StatusBadRequest, unsupported.Message())
	case errors.Is(err, domain.ErrInvalidRequest):
		logger.Info("chat request rejected", observability.Error(err))
		writeText(w, http.StatusBadRequest, bodyInvalidRequest)
	case errors.Is(err, domain.ErrServiceUnavailable):
		logger.Warn("chat relay unavailable", observability.Error(err))
		writeText(w, http.StatusServiceUnavailable, bodyServiceUnavailable)
	case errors.As(err, &upstream):
		logger.Warn("passing through upstream error", observability.Int("status", upstream.StatusCode))
		if upstream.ContentType != "" {
			w.Header().Set("Content-Type", upstream.ContentType)
		}
		w.WriteHeader(upstream.StatusCode)
		_, _ = w.Write(upstream.Body)
	default:
		logger.Error("chat relay failed", observability.Error(err))
		writeText(w, http.StatusInternalServerError, bodyInternalError)
	}
}

// writeText writes body exactly, without the trailing newline http.Error adds.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.FromContext(r.Context()).Error("failed to encode response", observability.Error(err))
	}
}

// writeJSONError writes the {"error": message} envelope.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
