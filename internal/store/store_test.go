package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqflow.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetSession_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &types.Session{
		ID:              types.NewID(),
		Mode:            types.ModeQuick,
		Phase:           types.PhaseClarifying,
		RequirementText: "Build a personal todo app",
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
		LastActivity:    time.Now(),
	}
	require.NoError(t, s.PutSession(ctx, sess))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.RequirementText, got.RequirementText)
	require.Equal(t, sess.Phase, got.Phase)
}

func TestStore_GetSession_UnknownReturnsEngineError(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession(context.Background(), types.NewID())
	require.Error(t, err)
	require.Equal(t, types.ErrUnknownSession, types.CodeOf(err))
}

func TestStore_ListActiveSessions_ExcludesTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active := &types.Session{ID: types.NewID(), Phase: types.PhaseAnalyzing, Mode: types.ModeStandard}
	done := &types.Session{ID: types.NewID(), Phase: types.PhaseDone, Mode: types.ModeStandard}
	require.NoError(t, s.PutSession(ctx, active))
	require.NoError(t, s.PutSession(ctx, done))

	sessions, err := s.ListActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, active.ID, sessions[0].ID)
}

func TestStore_AppendEvent_IdempotentOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sid := types.NewID()

	e := events.Event{SessionID: sid, Sequence: 1, Kind: types.EventKindPhase, Timestamp: time.Now()}
	require.NoError(t, s.AppendEvent(ctx, e))
	require.NoError(t, s.AppendEvent(ctx, e))

	seq, _, err := s.LastEventSequence(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)
}

func TestStore_PurgeSession_RemovesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess := &types.Session{ID: types.NewID(), Phase: types.PhaseDone, Mode: types.ModeQuick}
	require.NoError(t, s.PutSession(ctx, sess))
	require.NoError(t, s.PutArtifact(ctx, &types.Artifact{ID: types.NewID(), SessionID: sess.ID, Name: "requirements_spec.md"}))

	require.NoError(t, s.PurgeSession(ctx, sess.ID))

	_, err := s.GetSession(ctx, sess.ID)
	require.Error(t, err)

	artifacts, err := s.ListArtifacts(ctx, sess.ID)
	require.NoError(t, err)
	require.Empty(t, artifacts)
}

func TestStore_ClarificationRounds_LatestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sid := types.NewID()

	require.NoError(t, s.PutClarificationRound(ctx, sid, &types.ClarificationRound{ID: types.NewID(), Sequence: 1}))
	require.NoError(t, s.PutClarificationRound(ctx, sid, &types.ClarificationRound{ID: types.NewID(), Sequence: 2}))

	latest, err := s.LatestClarificationRound(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 2, latest.Sequence)
}
