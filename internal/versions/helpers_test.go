package versions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/promptlab/internal/prompt"
)

var errDiskFull = errors.New("disk full")

// failingPersister wraps a MemoryPersister and fails writes while fail is set.
type failingPersister struct {
	*MemoryPersister
	fail bool
}

func (f *failingPersister) WriteCollection(ctx context.Context, coll prompt.Collection) error {
	if f.fail {
		return errDiskFull
	}
	return f.MemoryPersister.WriteCollection(ctx, coll)
}

// testClock returns a clock that advances one second per call.
func testClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func sequentialIDs(n int) *FixedGenerator {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i+1)
	}
	return NewFixedGenerator(ids...)
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p,
		WithIDGenerator(sequentialIDs(50)),
		WithClock(testClock()),
	)
	require.NoError(t, err)
	return s
}

func snapshot(model, userPrompt string) Snapshot {
	cfg := prompt.DefaultConfig()
	cfg.Model = model
	cfg.UserPrompt = userPrompt
	return Snapshot{
		Config: cfg,
		Output: "output for " + userPrompt,
		Metadata: &prompt.Metadata{
			Model:        model,
			InputTokens:  120,
			OutputTokens: 200,
			LatencyMs:    640,
			Timestamp:    time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
		},
	}
}

// saveN appends n versions and returns them in creation order.
func saveN(t *testing.T, s *Store, n int) []prompt.Version {
	t.Helper()
	out := make([]prompt.Version, 0, n)
	for i := 1; i <= n; i++ {
		v, err := s.Append(context.Background(), snapshot("gpt-4o-mini", fmt.Sprintf("prompt %d", i)))
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func numbers(vs []prompt.Version) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.Version
	}
	return out
}
