package llm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/reqflow/engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int32
	failN   int32
	failErr error
	text    string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req Request) (Response, error) {
	n := p.calls.Add(1)
	if n <= p.failN {
		return Response{}, p.failErr
	}
	return Response{Text: p.text}, nil
}

func TestGateway_Generate_RetriesNetworkErrorThenSucceeds(t *testing.T) {
	provider := &fakeProvider{failN: 1, failErr: &NetworkError{Cause: context.DeadlineExceeded}, text: "ok"}
	gw := NewGateway(provider, 3)

	text, err := gw.Generate(context.Background(), "hello", ModeQuick)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestGateway_Generate_NonRetryableFailsImmediately(t *testing.T) {
	provider := &fakeProvider{failN: 1, failErr: assertErr("bad request")}
	gw := NewGateway(provider, 3)

	_, err := gw.Generate(context.Background(), "hello", ModeQuick)
	require.Error(t, err)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestGateway_Generate_CircuitOpensAfterRepeatedFailure(t *testing.T) {
	provider := &fakeProvider{failN: 1000, failErr: &NetworkError{Cause: context.DeadlineExceeded}}
	gw := NewGateway(provider, 3)

	for i := 0; i < failureThreshold; i++ {
		_, err := gw.Generate(context.Background(), "hello", ModeQuick)
		require.Error(t, err)
	}

	_, err := gw.Generate(context.Background(), "hello", ModeQuick)
	require.Error(t, err)
	assert.Equal(t, types.ErrLLMUnavailable, types.CodeOf(err))
}

func TestGateway_Generate_SemaphoreAbandonsOnCallerCancel(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	gw := NewGateway(provider, 1)
	gw.sem <- struct{}{} // occupy the single slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Generate(ctx, "hello", ModeQuick)
	require.Error(t, err)
	assert.Equal(t, types.ErrCancelled, types.CodeOf(err))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
