package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

type ssePayload struct {
	Sequence uint64          `json:"seq"`
	Ts       time.Time       `json:"ts"`
	Kind     types.EventKind `json:"kind"`
	Payload  any             `json:"payload"`
}

// events streams a session's event log as Server-Sent Events, resuming
// from Last-Event-ID or ?from_sequence= and closing with a replay error if
// the requested sequence has already fallen out of the retention window.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	id := types.ID(chi.URLParam(r, "id"))
	from := fromSequence(r)

	ch, cleanup, err := h.orc.Subscribe(id, from)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	defer cleanup()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, types.ErrInternal, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case e, open := <-ch:
			if !open {
				return
			}
			if err := writeSSE(w, e); err != nil {
				return
			}
			flusher.Flush()
			if e.Kind == types.EventKindTerminal {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, e events.Event) error {
	data, err := json.Marshal(ssePayload{Sequence: e.Sequence, Ts: e.Timestamp, Kind: e.Kind, Payload: e.Payload})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Sequence, e.Kind, data)
	return err
}
