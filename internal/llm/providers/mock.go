package providers

import (
	"context"
	"fmt"

	"github.com/reqflow/engine/internal/llm"
)

// Mock is a deterministic Provider for local development and the CLI's
// offline mode: it never calls out to a network, echoing a canned
// response shaped by the request so callers can exercise the full
// orchestration pipeline without credentials.
type Mock struct {
	label string
}

// NewMock returns a Mock provider; label is surfaced in its responses so
// multi-round traces stay distinguishable in logs.
func NewMock(label string) *Mock {
	if label == "" {
		label = "mock"
	}
	return &Mock{label: label}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	select {
	case <-ctx.Done():
		return llm.Response{}, ctx.Err()
	default:
	}
	return llm.Response{
		Text: fmt.Sprintf("[%s] acknowledged %d-token prompt", m.label, len(req.Prompt)/4),
	}, nil
}
