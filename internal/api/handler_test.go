package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

type fakeOrchestrator struct {
	startID  types.ID
	startErr error

	submitErr error

	subCh    chan events.Event
	subErr   error

	cancelErr error

	snapshot types.Snapshot
	snapErr  error

	lastMode types.Mode
}

func (f *fakeOrchestrator) Start(requirementText string, mode types.Mode, projectContext string) (types.ID, error) {
	f.lastMode = mode
	return f.startID, f.startErr
}

func (f *fakeOrchestrator) SubmitAnswer(sessionID types.ID, answers map[string]string) error {
	return f.submitErr
}

func (f *fakeOrchestrator) Subscribe(sessionID types.ID, fromSequence uint64) (<-chan events.Event, func(), error) {
	if f.subErr != nil {
		return nil, nil, f.subErr
	}
	return f.subCh, func() {}, nil
}

func (f *fakeOrchestrator) Cancel(sessionID types.ID) error {
	return f.cancelErr
}

func (f *fakeOrchestrator) GetSession(sessionID types.ID) (types.Snapshot, error) {
	return f.snapshot, f.snapErr
}

func TestAnalyze_StartsSessionAndReturnsAccepted(t *testing.T) {
	fake := &fakeOrchestrator{startID: "sess-1"}
	h := New(fake, nil)

	body, _ := json.Marshal(map[string]string{"requirement_text": "add password reset"})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, types.ModeStandard, fake.lastMode)
}

func TestAnalyze_InvalidInputMapsToBadRequest(t *testing.T) {
	fake := &fakeOrchestrator{startErr: types.New(types.ErrInvalidInput, "requirement_text must not be empty")}
	h := New(fake, nil)

	body, _ := json.Marshal(map[string]string{"requirement_text": ""})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClarify_RequiresSessionID(t *testing.T) {
	h := New(&fakeOrchestrator{}, nil)

	body, _ := json.Marshal(map[string]string{"answer": "yes"})
	req := httptest.NewRequest(http.MethodPost, "/clarify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_UnknownSessionMapsToNotFound(t *testing.T) {
	fake := &fakeOrchestrator{snapErr: types.New(types.ErrUnknownSession, "no such session")}
	h := New(fake, nil)

	req := httptest.NewRequest(http.MethodGet, "/session/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancel_ReturnsOK(t *testing.T) {
	h := New(&fakeOrchestrator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cancel/sess-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp cancelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
}

func TestEvents_StreamsUntilTerminal(t *testing.T) {
	ch := make(chan events.Event, 2)
	ch <- events.Event{Sequence: 1, Kind: types.EventKindPhase, Payload: events.PhasePayload{Phase: types.PhaseClarifying}}
	ch <- events.Event{Sequence: 2, Kind: types.EventKindTerminal, Payload: events.TerminalPayload{Phase: types.PhaseDone}}

	fake := &fakeOrchestrator{subCh: ch}
	h := New(fake, nil)

	req := httptest.NewRequest(http.MethodGet, "/session/sess-1/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: phase")
	assert.Contains(t, rec.Body.String(), "event: terminal")
}

func TestFromSequence_PrefersLastEventIDOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/session/sess-1/events?from_sequence=5", nil)
	req.Header.Set("Last-Event-ID", "10")
	assert.Equal(t, uint64(11), fromSequence(req))
}

func TestFromSequence_FallsBackToQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/session/sess-1/events?from_sequence=5", nil)
	assert.Equal(t, uint64(5), fromSequence(req))
}
