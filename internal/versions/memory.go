package versions

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/promptlab/internal/prompt"
)

// MemoryPersister keeps the collection in process memory.
// Used by tests and by callers that do not need durability.
type MemoryPersister struct {
	mu     sync.Mutex
	coll   prompt.Collection
	writes int
}

// NewMemoryPersister returns a persister seeded with versions, newest first.
func NewMemoryPersister(versions ...prompt.Version) *MemoryPersister {
	coll := prompt.Collection{Versions: slices.Clone(versions)}
	coll.LastVersion = coll.HighWater()
	return &MemoryPersister{coll: coll}
}

// ReadCollection returns a copy of the held collection.
func (m *MemoryPersister) ReadCollection(_ context.Context) (prompt.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return prompt.Collection{
		LastVersion: m.coll.LastVersion,
		Versions:    slices.Clone(m.coll.Versions),
	}, nil
}

// WriteCollection replaces the held collection with a copy of coll.
func (m *MemoryPersister) WriteCollection(_ context.Context, coll prompt.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll = prompt.Collection{
		LastVersion: coll.LastVersion,
		Versions:    slices.Clone(coll.Versions),
	}
	m.writes++
	return nil
}

// Writes returns how many times WriteCollection has been called.
func (m *MemoryPersister) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
