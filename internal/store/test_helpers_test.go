package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/promptlab/internal/prompt"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestVersion creates a test version with minimal required fields.
func createTestVersion(n int64) prompt.Version {
	ts := time.Date(2024, 3, 1, 12, 0, int(n), 0, time.UTC)
	cfg := prompt.DefaultConfig()
	cfg.UserPrompt = fmt.Sprintf("prompt %d", n)
	return prompt.Version{
		ID:      fmt.Sprintf("id-%d", n),
		Version: n,
		Config:  cfg,
		Output:  fmt.Sprintf("output %d", n),
		Metadata: prompt.Metadata{
			Model:        cfg.Model,
			InputTokens:  100,
			OutputTokens: 150,
			LatencyMs:    500,
			Timestamp:    ts,
		},
		Timestamp:   ts,
		Fingerprint: prompt.MustFingerprint(cfg),
	}
}

// collectionOf wraps versions, newest first, in a collection.
func collectionOf(versions ...prompt.Version) prompt.Collection {
	return prompt.Collection{Versions: versions}
}
