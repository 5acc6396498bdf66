package execute

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/promptlab/internal/prompt"
)

// ErrBusy is returned by Guard when an execution is already in flight.
var ErrBusy = errors.New("an execution is already running")

// Result is the output and statistics of one execution.
type Result struct {
	Output   string          `json:"output" yaml:"output"`
	Metadata prompt.Metadata `json:"metadata" yaml:"metadata"`
}

// Executor runs a config and returns its result.
type Executor interface {
	Execute(ctx context.Context, cfg prompt.Config) (Result, error)
}

// Guard allows one outstanding execution at a time.
//
// A call made while another is running fails immediately with ErrBusy; calls
// are never queued.
type Guard struct {
	next Executor
	busy atomic.Bool
}

// NewGuard wraps next.
func NewGuard(next Executor) *Guard {
	return &Guard{next: next}
}

// Execute runs next unless another execution is in flight.
func (g *Guard) Execute(ctx context.Context, cfg prompt.Config) (Result, error) {
	if !g.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer g.busy.Store(false)

	return g.next.Execute(ctx, cfg)
}

// Busy reports whether an execution is in flight.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
