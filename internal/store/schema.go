package store

// schema is applied idempotently on Open via CREATE TABLE IF NOT EXISTS,
// the same migration-free approach the teacher's database package uses
// for its single-binary embedded schema.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	mode            TEXT NOT NULL,
	phase           TEXT NOT NULL,
	requirement     TEXT NOT NULL,
	project_context TEXT NOT NULL DEFAULT '',
	failure_reason  TEXT NOT NULL DEFAULT '',
	root_task_id    TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	last_activity   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_phase ON sessions(phase);
CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity);

CREATE TABLE IF NOT EXISTS events (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	ts         INTEGER NOT NULL,
	payload    BLOB NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	record     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_session ON tasks(session_id);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	record     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_session ON artifacts(session_id);

CREATE TABLE IF NOT EXISTS clarification_rounds (
	session_id TEXT NOT NULL,
	sequence   INTEGER NOT NULL,
	record     BLOB NOT NULL,
	PRIMARY KEY (session_id, sequence)
);
`
