// Package api is the HTTP/SSE adapter over the Flow Orchestrator: the
// request/response surface for starting and steering a session, and the
// streaming surface subscribers use to follow its event log.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reqflow/engine/internal/contextkeys"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

// Orchestrator is the subset of *orchestrator.Orchestrator the API depends
// on, narrowed so handler tests can substitute a fake.
type Orchestrator interface {
	Start(requirementText string, mode types.Mode, projectContext string) (types.ID, error)
	SubmitAnswer(sessionID types.ID, answers map[string]string) error
	Subscribe(sessionID types.ID, fromSequence uint64) (<-chan events.Event, func(), error)
	Cancel(sessionID types.ID) error
	GetSession(sessionID types.ID) (types.Snapshot, error)
}

// Handler wires the External Interfaces routes onto a chi router.
type Handler struct {
	orc Orchestrator
	log *slog.Logger
}

// New builds the HTTP handler exposing POST /analyze, POST /clarify,
// GET /session/{id}, POST /cancel/{id}, and GET /session/{id}/events.
func New(orc Orchestrator, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{orc: orc, log: log.With("component", "api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(stampRequestID)

	r.Post("/analyze", h.analyze)
	r.Post("/clarify", h.clarify)
	r.Get("/session/{id}", h.getSession)
	r.Post("/cancel/{id}", h.cancel)
	r.Get("/session/{id}/events", h.events)

	return r
}

// stampRequestID copies chi's generated request ID into our own context
// key so downstream code can read it via contextkeys without importing
// chi/middleware.
func stampRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := contextkeys.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type analyzeRequest struct {
	RequirementText string `json:"requirement_text"`
	ProjectContext  string `json:"project_context,omitempty"`
	Mode            string `json:"mode,omitempty"`
}

type analyzeResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, types.ErrInvalidInput, "malformed request body")
		return
	}

	mode := types.ModeStandard
	if req.Mode != "" {
		mode = types.Mode(req.Mode)
	}

	sessionID, err := h.orc.Start(req.RequirementText, mode, req.ProjectContext)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}

	h.log.Info("session started",
		"session_id", sessionID,
		"request_id", contextkeys.GetRequestID(r.Context()),
		"mode", mode,
	)

	writeJSON(w, http.StatusAccepted, analyzeResponse{SessionID: string(sessionID), Status: "clarifying"})
}

type clarifyRequest struct {
	SessionID string            `json:"session_id"`
	Answer    string            `json:"answer,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
}

type clarifyResponse struct {
	Ack bool `json:"ack"`
}

func (h *Handler) clarify(w http.ResponseWriter, r *http.Request) {
	var req clarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, types.ErrInvalidInput, "malformed request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, types.ErrInvalidInput, "session_id is required")
		return
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	if req.Answer != "" {
		answers["answer"] = req.Answer
	}

	if err := h.orc.SubmitAnswer(types.ID(req.SessionID), answers); err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clarifyResponse{Ack: true})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := types.ID(chi.URLParam(r, "id"))
	snap, err := h.orc.GetSession(id)
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type cancelResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id := types.ID(chi.URLParam(r, "id"))
	if err := h.orc.Cancel(id); err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{OK: true})
}

// fromSequence resolves the resume cursor: Last-Event-ID takes precedence
// over ?from_sequence=, matching how browser EventSource auto-reconnect
// repopulates the header.
func fromSequence(r *http.Request) uint64 {
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n + 1
		}
	}
	if v := r.URL.Query().Get("from_sequence"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
