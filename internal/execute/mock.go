package execute

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/promptlab/internal/prompt"
)

// DefaultDelay is how long Mock pretends the model takes.
const DefaultDelay = 1500 * time.Millisecond

// Statistic ranges, inclusive.
const (
	minInputTokens  = 50
	maxInputTokens  = 199
	minOutputTokens = 80
	maxOutputTokens = 279
	minLatencyMs    = 400
	maxLatencyMs    = 999
)

const outputTemplate = `Based on your prompt, here is a generated response that demonstrates the model's capabilities.

This is a simulated output for demonstration purposes. In a production environment, this would be the actual response from the LLM API.

Key points:
• The response maintains context from the system prompt
• Variables are interpolated as specified
• Output respects the max tokens limit

Temperature: %.2f affects randomness.
Model: %s`

// Mock is a simulated model. It never fails except on context cancellation.
type Mock struct {
	delay   time.Duration
	now     func() time.Time
	counter TokenCounter
	logger  *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithDelay sets the simulated delay. Zero disables waiting.
func WithDelay(d time.Duration) MockOption {
	return func(m *Mock) {
		m.delay = d
	}
}

// WithRand sets the random source for token and latency statistics.
func WithRand(r *rand.Rand) MockOption {
	return func(m *Mock) {
		m.rng = r
	}
}

// WithSeed seeds the random source, for reproducible statistics.
func WithSeed(seed uint64) MockOption {
	return func(m *Mock) {
		m.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithClock sets the metadata timestamp source.
func WithClock(now func() time.Time) MockOption {
	return func(m *Mock) {
		m.now = now
	}
}

// WithTokenCounter counts input tokens over the rendered prompts instead of
// drawing them at random.
func WithTokenCounter(c TokenCounter) MockOption {
	return func(m *Mock) {
		m.counter = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) MockOption {
	return func(m *Mock) {
		m.logger = l
	}
}

// NewMock returns a simulated model.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		delay:  DefaultDelay,
		now:    time.Now,
		logger: slog.Default(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute waits the configured delay and returns canned output.
//
// Variables are interpolated into both prompts when they parse as a JSON
// object; otherwise the prompts are used as written.
func (m *Mock) Execute(ctx context.Context, cfg prompt.Config) (Result, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("execute: %w", ctx.Err())
		case <-timer.C:
		}
	}

	system, user := cfg.Rendered()

	m.mu.Lock()
	inputTokens := between(m.rng, minInputTokens, maxInputTokens)
	outputTokens := between(m.rng, minOutputTokens, maxOutputTokens)
	latency := int64(between(m.rng, minLatencyMs, maxLatencyMs))
	m.mu.Unlock()

	if m.counter != nil {
		n, err := countAll(m.counter, system, user)
		if err != nil {
			return Result{}, fmt.Errorf("execute: count tokens: %w", err)
		}
		inputTokens = n
	}

	res := Result{
		Output: fmt.Sprintf(outputTemplate, cfg.Temperature, cfg.Model),
		Metadata: prompt.Metadata{
			Model:        cfg.Model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			LatencyMs:    latency,
			Timestamp:    m.now(),
		},
	}

	m.logger.Debug("mock execution finished",
		"model", cfg.Model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"latency_ms", latency,
	)
	return res, nil
}

// between returns a uniform integer in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
