package compare

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/versions"
)

// openStore returns a versions store holding n saved versions, v1..vn, with
// ids id-1..id-n.
func openStore(t *testing.T, n int) *versions.Store {
	t.Helper()
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i+1)
	}
	s, err := versions.Open(context.Background(), versions.NewMemoryPersister(),
		versions.WithIDGenerator(versions.NewFixedGenerator(ids...)),
		versions.WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		cfg := prompt.DefaultConfig()
		cfg.UserPrompt = fmt.Sprintf("prompt %d", i)
		_, err := s.Append(context.Background(), versions.Snapshot{
			Config:   cfg,
			Output:   fmt.Sprintf("output %d", i),
			Metadata: &prompt.Metadata{Model: cfg.Model, InputTokens: 100 * i, OutputTokens: 150, LatencyMs: 500},
		})
		require.NoError(t, err)
	}
	return s
}

// renderComparison is the plain-text form used for golden files.
func renderComparison(c Comparison) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s\n", c.A.Label(), c.B.Label())
	for _, r := range c.Rows {
		mark := "same"
		if r.Differs {
			mark = "differs"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s\n", r.Label, r.A, r.B, mark)
	}
	fmt.Fprintf(&b, "same config: %t\n", c.SameConfig)
	for _, d := range c.Diffs {
		fmt.Fprintf(&b, "== %s (+%d -%d)\n", d.Field, d.Added, d.Deleted)
		b.WriteString(d.Unified)
	}
	return []byte(b.String())
}
