// Package contextkeys provides shared context key definitions so the
// orchestrator and agent packages can tag a context with the session and
// task it belongs to without threading extra parameters through every
// call, and so tracing spans and log lines can be correlated back to them.
package contextkeys

import "context"

// Key is the type for all reqflow context keys.
type Key string

const (
	// SessionID stores the owning session's ID.
	SessionID Key = "reqflow.session_id"

	// TaskID stores the currently executing task's ID.
	TaskID Key = "reqflow.task_id"

	// RequestID stores the inbound HTTP request ID (from chi's RequestID
	// middleware) for correlating API logs with the session they started.
	RequestID Key = "reqflow.request_id"
)

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionID, sessionID)
}

// GetSessionID retrieves the session ID from context, or "" if unset.
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionID); v != nil {
		return v.(string)
	}
	return ""
}

// WithTaskID returns a new context with the task ID set.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, TaskID, taskID)
}

// GetTaskID retrieves the task ID from context, or "" if unset.
func GetTaskID(ctx context.Context) string {
	if v := ctx.Value(TaskID); v != nil {
		return v.(string)
	}
	return ""
}

// WithRequestID returns a new context with the inbound request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestID, requestID)
}

// GetRequestID retrieves the inbound request ID from context, or "" if unset.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(RequestID); v != nil {
		return v.(string)
	}
	return ""
}
