package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidbz/cthai/internal/auth"
	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
	"github.com/davidbz/cthai/internal/state"
)

const stateKeepAlive = 25 * time.Second

// HandleGetState returns one state section.
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}

	snap, err := h.state.Get(r.Context(), auth.CurrentUser(r.Context()).ID, section)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// HandlePatchState shallow-merges the JSON object body into a section.
func (h *Handler) HandlePatchState(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}

	var patch state.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		writeJSONError(w, r, http.StatusBadRequest, "Body must be a JSON object")
		return
	}

	snap, err := h.state.Update(r.Context(), auth.CurrentUser(r.Context()).ID, section, patch)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// HandleResetState restores a section's defaults.
func (h *Handler) HandleResetState(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}

	snap, err := h.state.Reset(r.Context(), auth.CurrentUser(r.Context()).ID, section)
	if err != nil {
		writeStateError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

// HandleResetAllState restores every section's defaults.
func (h *Handler) HandleResetAllState(w http.ResponseWriter, r *http.Request) {
	if err := state.ResetAll(r.Context(), h.state, auth.CurrentUser(r.Context()).ID); err != nil {
		writeStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearGenerated empties the generated media lists.
func (h *Handler) HandleClearGenerated(w http.ResponseWriter, r *http.Request) {
	if err := state.ClearGenerated(r.Context(), h.state, auth.CurrentUser(r.Context()).ID); err != nil {
		writeStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStateEvents streams changes to one of the caller's sections as
// server-sent events until the client goes away.
func (h *Handler) HandleStateEvents(w http.ResponseWriter, r *http.Request) {
	section, ok := h.section(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	logger := observability.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		writeJSONError(w, r, http.StatusInternalServerError, bodyInternalError)
		return
	}

	changes, err := h.state.Subscribe(ctx, auth.CurrentUser(ctx).ID)
	if err != nil {
		writeStateError(w, r, err)
		return
	}

	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(stateKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case change, changeOk := <-changes:
			if !changeOk {
				return
			}
			if change.Section != section {
				continue
			}
			data, marshalErr := json.Marshal(change)
			if marshalErr != nil {
				logger.Error("failed to encode state change", observability.Error(marshalErr))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) (state.Section, bool) {
	section, err := state.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		writeJSONError(w, r, http.StatusNotFound, "Unknown state section")
		return "", false
	}
	return section, true
}

func writeStateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidRequest) {
		observability.FromContext(r.Context()).Info("state request rejected", observability.Error(err))
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	observability.FromContext(r.Context()).Error("state store failed", observability.Error(err))
	writeJSONError(w, r, http.StatusInternalServerError, bodyInternalError)
}
