// Package store implements durable, crash-tolerant persistence for
// sessions, their task trees, clarification rounds, artifacts and event
// log — the Session Store component. It is a thin sql.DB wrapper over
// SQLite in WAL mode, following the teacher's database package: one
// embedded schema applied on Open, one DAO-style type per entity family.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/types"
)

// Store is the Session Store contract: put_session/get_session,
// append_event, list_active_sessions, purge_session, plus the task,
// round and artifact accessors the Orchestrator needs to reconstruct a
// session's full state on recovery.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at path in WAL mode
// and applies the embedded schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite write-serializes; one conn avoids SQLITE_BUSY storms.

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutSession writes a session record as a whole-record atomic upsert.
func (s *Store) PutSession(ctx context.Context, sess *types.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, phase, requirement, project_context, failure_reason, root_task_id, created_at, updated_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode, phase=excluded.phase, requirement=excluded.requirement,
			project_context=excluded.project_context, failure_reason=excluded.failure_reason,
			root_task_id=excluded.root_task_id, updated_at=excluded.updated_at, last_activity=excluded.last_activity
	`,
		string(sess.ID), string(sess.Mode), string(sess.Phase), sess.RequirementText, sess.ProjectContext,
		string(sess.FailureReason), string(sess.RootTaskID),
		sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano(), sess.LastActivity.UnixNano(),
	)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_session", err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id types.ID) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, phase, requirement, project_context, failure_reason, root_task_id, created_at, updated_at, last_activity
		FROM sessions WHERE id = ?`, string(id))

	var sess types.Session
	var sid, mode, phase, failureReason, rootTaskID string
	var createdAt, updatedAt, lastActivity int64
	if err := row.Scan(&sid, &mode, &phase, &sess.RequirementText, &sess.ProjectContext,
		&failureReason, &rootTaskID, &createdAt, &updatedAt, &lastActivity); err != nil {
		if err == sql.ErrNoRows {
			return nil, types.New(types.ErrUnknownSession, string(id))
		}
		return nil, types.Wrap(types.ErrInternal, "get_session", err)
	}
	sess.ID = types.ID(sid)
	sess.Mode = types.Mode(mode)
	sess.Phase = types.Phase(phase)
	sess.FailureReason = types.ErrorCode(failureReason)
	sess.RootTaskID = types.ID(rootTaskID)
	sess.CreatedAt = time.Unix(0, createdAt)
	sess.UpdatedAt = time.Unix(0, updatedAt)
	sess.LastActivity = time.Unix(0, lastActivity)
	return &sess, nil
}

// ListActiveSessions returns every session not in a terminal phase, for
// restart recovery.
func (s *Store) ListActiveSessions(ctx context.Context) ([]*types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE phase NOT IN (?, ?)`,
		string(types.PhaseDone), string(types.PhaseFailed))
	if err != nil {
		return nil, types.Wrap(types.ErrInternal, "list_active_sessions", err)
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Wrap(types.ErrInternal, "list_active_sessions scan", err)
		}
		ids = append(ids, types.ID(id))
	}

	sessions := make([]*types.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// PurgeSession deletes a session and everything scoped to it. Call this
// when retention_policy (default 7 days since last activity) has elapsed.
func (s *Store) PurgeSession(ctx context.Context, id types.ID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.ErrInternal, "purge_session begin", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sessions", "events", "tasks", "artifacts", "clarification_rounds"} {
		col := "id"
		if table != "sessions" {
			col = "session_id"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col), string(id)); err != nil {
			return types.Wrap(types.ErrInternal, "purge_session delete "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return types.Wrap(types.ErrInternal, "purge_session commit", err)
	}
	return nil
}

// ExpiredSessions returns ids of sessions whose last activity predates the
// retention cutoff, for periodic TTL sweeps.
func (s *Store) ExpiredSessions(ctx context.Context, olderThan time.Time) ([]types.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE last_activity < ?`, olderThan.UnixNano())
	if err != nil {
		return nil, types.Wrap(types.ErrInternal, "expired_sessions", err)
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Wrap(types.ErrInternal, "expired_sessions scan", err)
		}
		ids = append(ids, types.ID(id))
	}
	return ids, nil
}

// AppendEvent durably persists an event before acknowledgment.
func (s *Store) AppendEvent(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return types.Wrap(types.ErrInternal, "append_event marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, kind, ts, payload) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING`,
		string(e.SessionID), e.Sequence, string(e.Kind), e.Timestamp.UnixNano(), payload)
	if err != nil {
		return types.Wrap(types.ErrInternal, "append_event", err)
	}
	return nil
}

// LastEventSequence returns the highest persisted sequence number for a
// session, or 0 if none.
func (s *Store) LastEventSequence(ctx context.Context, sessionID types.ID) (uint64, time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT seq, ts FROM events WHERE session_id = ? ORDER BY seq DESC LIMIT 1`, string(sessionID))
	var seq uint64
	var ts int64
	if err := row.Scan(&seq, &ts); err != nil {
		if err == sql.ErrNoRows {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, types.Wrap(types.ErrInternal, "last_event_sequence", err)
	}
	return seq, time.Unix(0, ts), nil
}

// PutTask upserts a task's full record.
func (s *Store) PutTask(ctx context.Context, task *types.Task) error {
	record, err := json.Marshal(task)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_task marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, session_id, record) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET record=excluded.record`,
		string(task.ID), string(task.SessionID), record)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_task", err)
	}
	return nil
}

// ListTasks returns every task belonging to a session.
func (s *Store) ListTasks(ctx context.Context, sessionID types.ID) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM tasks WHERE session_id = ?`, string(sessionID))
	if err != nil {
		return nil, types.Wrap(types.ErrInternal, "list_tasks", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, types.Wrap(types.ErrInternal, "list_tasks scan", err)
		}
		var task types.Task
		if err := json.Unmarshal(record, &task); err != nil {
			return nil, types.Wrap(types.ErrInternal, "list_tasks unmarshal", err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}

// PutArtifact persists a produced artifact.
func (s *Store) PutArtifact(ctx context.Context, artifact *types.Artifact) error {
	record, err := json.Marshal(artifact)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_artifact marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, session_id, record) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET record=excluded.record`,
		string(artifact.ID), string(artifact.SessionID), record)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_artifact", err)
	}
	return nil
}

// ListArtifacts returns every artifact produced within a session.
func (s *Store) ListArtifacts(ctx context.Context, sessionID types.ID) ([]types.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM artifacts WHERE session_id = ?`, string(sessionID))
	if err != nil {
		return nil, types.Wrap(types.ErrInternal, "list_artifacts", err)
	}
	defer rows.Close()

	var artifacts []types.Artifact
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, types.Wrap(types.ErrInternal, "list_artifacts scan", err)
		}
		var artifact types.Artifact
		if err := json.Unmarshal(record, &artifact); err != nil {
			return nil, types.Wrap(types.ErrInternal, "list_artifacts unmarshal", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// PutClarificationRound upserts a round record keyed by (session,
// sequence); writing the same sequence again replaces the stored record,
// which is how a round's answers are added after its questions.
func (s *Store) PutClarificationRound(ctx context.Context, sessionID types.ID, round *types.ClarificationRound) error {
	record, err := json.Marshal(round)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_round marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clarification_rounds (session_id, sequence, record) VALUES (?, ?, ?)
		ON CONFLICT(session_id, sequence) DO UPDATE SET record=excluded.record`,
		string(sessionID), round.Sequence, record)
	if err != nil {
		return types.Wrap(types.ErrInternal, "put_round", err)
	}
	return nil
}

// LatestClarificationRound returns the highest-sequence round for a
// session, or nil if none exists.
func (s *Store) LatestClarificationRound(ctx context.Context, sessionID types.ID) (*types.ClarificationRound, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT record FROM clarification_rounds WHERE session_id = ? ORDER BY sequence DESC LIMIT 1`, string(sessionID))
	var record []byte
	if err := row.Scan(&record); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, types.Wrap(types.ErrInternal, "latest_round", err)
	}
	var round types.ClarificationRound
	if err := json.Unmarshal(record, &round); err != nil {
		return nil, types.Wrap(types.ErrInternal, "latest_round unmarshal", err)
	}
	return &round, nil
}
