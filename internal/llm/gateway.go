package llm

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/reqflow/engine/internal/types"
)

// Mode selects the timeout/max_tokens/temperature budget for a call, per
// the LLM Gateway contract.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeStandard Mode = "standard"
	ModeDeep     Mode = "deep"
)

type modeDefaults struct {
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

var defaultsByMode = map[Mode]modeDefaults{
	ModeQuick:    {timeout: 20 * time.Second, maxTokens: 1024, temperature: 0.0},
	ModeStandard: {timeout: 60 * time.Second, maxTokens: 4096, temperature: 0.0},
	ModeDeep:     {timeout: 120 * time.Second, maxTokens: 8192, temperature: 0.2},
}

const (
	maxRetries     = 2
	retryBase      = 250 * time.Millisecond
	retryMax       = 1 * time.Second
	retryJitterPct = 0.25
)

// Gateway isolates the core from LLM latency and unavailability: a global
// semaphore bounds in-flight calls, a per-provider circuit breaker trips
// on repeated failure, and NetworkError/ServerError(5xx) are retried with
// jittered exponential backoff.
type Gateway struct {
	provider Provider
	sem      chan struct{}
	breaker  *circuitBreaker
	limiter  *rate.Limiter

	mu sync.Mutex
}

// Option configures a Gateway.
type GatewayOption func(*Gateway)

// WithRateLimit caps sustained request rate to the provider in addition
// to the concurrency semaphore; burst allows short spikes.
func WithRateLimit(perSecond float64, burst int) GatewayOption {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewGateway constructs a Gateway over provider with the given global
// concurrency cap (max_concurrent_llm, default 3).
func NewGateway(provider Provider, maxConcurrent int, opts ...GatewayOption) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	g := &Gateway{
		provider: provider,
		sem:      make(chan struct{}, maxConcurrent),
		breaker:  newCircuitBreaker(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate executes prompt against mode's budget. Callers queue FIFO on
// the semaphore and abandon with Cancelled if ctx is done first.
func (g *Gateway) Generate(ctx context.Context, prompt string, mode Mode) (string, error) {
	if !g.breaker.Allow() {
		return "", types.New(types.ErrLLMUnavailable, "circuit breaker open for "+g.provider.Name())
	}

	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return "", types.Wrap(types.ErrCancelled, "llm call abandoned waiting for semaphore", ctx.Err())
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", types.Wrap(types.ErrCancelled, "llm call abandoned waiting for rate limit", err)
		}
	}

	budget := defaultsByMode[mode]
	if budget.timeout == 0 {
		budget = defaultsByMode[ModeStandard]
	}

	callCtx, cancel := context.WithTimeout(ctx, budget.timeout)
	defer cancel()

	req := Request{Prompt: prompt, MaxTokens: budget.maxTokens, Temperature: budget.temperature}

	text, err := g.callWithRetry(callCtx, req)
	if err != nil {
		g.breaker.RecordFailure()
		if callCtx.Err() != nil {
			return "", types.New(types.ErrTimeout, "llm call exceeded "+budget.timeout.String()+" budget")
		}
		return "", types.Wrap(types.ErrLLMUnavailable, "llm provider call failed", err)
	}
	g.breaker.RecordSuccess()
	return text, nil
}

func (g *Gateway) callWithRetry(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := g.provider.Complete(ctx, req)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func backoffDelay(attempt int) time.Duration {
	base := retryBase * time.Duration(1<<(attempt-1))
	if base > retryMax {
		base = retryMax
	}
	jitter := float64(base) * retryJitterPct * (2*rand.Float64() - 1)
	return base + time.Duration(jitter)
}
