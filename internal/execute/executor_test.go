package execute

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/promptlab/internal/prompt"
)

// blockingExecutor blocks until release is closed.
type blockingExecutor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingExecutor() *blockingExecutor {
	return &blockingExecutor{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingExecutor) Execute(ctx context.Context, cfg prompt.Config) (Result, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return Result{Output: "done", Metadata: prompt.Metadata{Model: cfg.Model}}, nil
}

func TestGuard_RejectsConcurrentExecution(t *testing.T) {
	inner := newBlockingExecutor()
	g := NewGuard(inner)
	cfg := prompt.DefaultConfig()

	errc := make(chan error, 1)
	go func() {
		_, err := g.Execute(context.Background(), cfg)
		errc <- err
	}()

	<-inner.started
	assert.True(t, g.Busy())

	_, err := g.Execute(context.Background(), cfg)
	require.ErrorIs(t, err, ErrBusy)

	close(inner.release)
	require.NoError(t, <-errc)
	assert.False(t, g.Busy())
}

func TestGuard_SequentialCallsSucceed(t *testing.T) {
	g := NewGuard(newTestMock())
	cfg := prompt.DefaultConfig()

	for i := 0; i < 3; i++ {
		res, err := g.Execute(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, cfg.Model, res.Metadata.Model)
	}
	assert.False(t, g.Busy())
}
