package versions

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/promptlab/internal/prompt"
)

// Persister is the durable side of the store. store.Store implements it.
type Persister interface {
	ReadCollection(ctx context.Context) (prompt.Collection, error)
	WriteCollection(ctx context.Context, coll prompt.Collection) error
}

// Snapshot is the input to Append: the config that was run plus its result.
// Metadata is nil when nothing has been executed yet.
type Snapshot struct {
	Config   prompt.Config
	Output   string
	Metadata *prompt.Metadata
	Note     string
}

// Store owns the version collection.
//
// Thread-safety: all methods are safe for concurrent use. Mutations are
// serialized; reads take a shared lock and return copies.
type Store struct {
	mu   sync.RWMutex
	coll prompt.Collection

	persister Persister
	ids       IDGenerator
	now       func() time.Time
	logger    *slog.Logger
	revision  revisionClock
	observers observers
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithClock sets the creation-time source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open loads the last persisted collection and returns a store over it.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		ids:       UUIDv7Generator{},
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	coll, err := p.ReadCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("open versions: %w", err)
	}
	if coll.Versions == nil {
		coll.Versions = []prompt.Version{}
	}
	coll.LastVersion = coll.HighWater()
	s.coll = coll

	s.logger.Debug("versions loaded", "count", len(coll.Versions), "last_version", coll.LastVersion)
	return s, nil
}

// Append saves snap as a new version at the front of the collection.
//
// Returns ErrNoResult, leaving the collection unchanged, when snap has no
// metadata.
func (s *Store) Append(ctx context.Context, snap Snapshot) (prompt.Version, error) {
	if snap.Metadata == nil {
		return prompt.Version{}, ErrNoResult
	}

	fp, err := prompt.Fingerprint(snap.Config)
	if err != nil {
		return prompt.Version{}, fmt.Errorf("append version: %w", err)
	}

	s.mu.Lock()
	number := s.coll.HighWater() + 1
	v := prompt.Version{
		ID:          s.ids.Generate(),
		Version:     number,
		Config:      snap.Config,
		Output:      snap.Output,
		Metadata:    *snap.Metadata,
		Note:        snap.Note,
		Timestamp:   s.now(),
		Fingerprint: fp,
	}

	next := prompt.Collection{
		LastVersion: number,
		Versions:    make([]prompt.Version, 0, len(s.coll.Versions)+1),
	}
	next.Versions = append(next.Versions, v)
	next.Versions = append(next.Versions, s.coll.Versions...)

	ev, err := s.commit(ctx, next, EventAppended, []string{v.ID})
	s.mu.Unlock()
	if err != nil {
		return prompt.Version{}, fmt.Errorf("append version: %w", err)
	}

	s.observers.notify(ev)
	return v, nil
}

// DeleteOne permanently removes the version with the given id.
// Returns ErrNotFound, persisting nothing, when no version matches.
func (s *Store) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	next := prompt.Collection{
		LastVersion: s.coll.LastVersion,
		Versions:    slices.Delete(slices.Clone(s.coll.Versions), idx, idx+1),
	}

	ev, err := s.commit(ctx, next, EventDeleted, []string{id})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	s.observers.notify(ev)
	return nil
}

// DeleteMany removes every version whose id is in ids as one update and
// returns how many were removed. Unknown ids are ignored. When nothing
// matches, nothing is persisted and no event is emitted.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	kept := make([]prompt.Version, 0, len(s.coll.Versions))
	var removed []string
	for _, v := range s.coll.Versions {
		if _, ok := want[v.ID]; ok {
			removed = append(removed, v.ID)
			continue
		}
		kept = append(kept, v)
	}

	if len(removed) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	next := prompt.Collection{LastVersion: s.coll.LastVersion, Versions: kept}
	ev, err := s.commit(ctx, next, EventDeleted, removed)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("delete versions: %w", err)
	}

	s.observers.notify(ev)
	return len(removed), nil
}

// UpdateNote replaces the note of one version. No other field changes.
// Returns ErrNotFound when no version matches.
func (s *Store) UpdateNote(ctx context.Context, id, note string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update note %s: %w", id, ErrNotFound)
	}

	next := prompt.Collection{
		LastVersion: s.coll.LastVersion,
		Versions:    slices.Clone(s.coll.Versions),
	}
	next.Versions[idx].Note = note

	ev, err := s.commit(ctx, next, EventNoteUpdated, []string{id})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("update note %s: %w", id, err)
	}

	s.observers.notify(ev)
	return nil
}

// commit persists next and swaps it in. Caller must hold s.mu for writing.
// On error the current collection is left untouched.
func (s *Store) commit(ctx context.Context, next prompt.Collection, kind EventKind, ids []string) (Event, error) {
	if err := s.persister.WriteCollection(ctx, next); err != nil {
		s.logger.Error("persist versions failed", "kind", kind, "ids", ids, "error", err)
		return Event{}, fmt.Errorf("persist: %w", err)
	}

	s.coll = next
	ev := Event{Kind: kind, IDs: ids, Revision: s.revision.Next()}
	s.logger.Info("versions updated",
		"kind", ev.Kind,
		"ids", ev.IDs,
		"revision", ev.Revision,
		"count", len(next.Versions),
	)
	return ev, nil
}

// indexOf returns the position of id or -1. Caller must hold s.mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.coll.Versions, func(v prompt.Version) bool {
		return v.ID == id
	})
}

// Get returns the version with the given id.
func (s *Store) Get(id string) (prompt.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return prompt.Version{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.coll.Versions[idx], nil
}

var labelPattern = regexp.MustCompile(`^[vV](\d+)$`)

// ParseLabel parses a label such as "v3" into its version number.
func ParseLabel(ref string) (int64, bool) {
	m := labelPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve returns the version referenced by an id or a label like "v3".
// An exact id match wins over a label.
func (s *Store) Resolve(ref string) (prompt.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(ref); idx >= 0 {
		return s.coll.Versions[idx], nil
	}
	if n, ok := ParseLabel(ref); ok {
		for _, v := range s.coll.Versions {
			if v.Version == n {
				return v, nil
			}
		}
	}
	return prompt.Version{}, fmt.Errorf("resolve %s: %w", ref, ErrNotFound)
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []prompt.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.coll.Versions)
}

// Len returns the number of stored versions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.coll.Versions)
}

// LastVersion returns the highest version number ever assigned.
func (s *Store) LastVersion() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll.LastVersion
}

// Models returns the distinct models in collection order, first seen first.
func (s *Store) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	models := []string{}
	for _, v := range s.coll.Versions {
		if _, ok := seen[v.Model]; ok {
			continue
		}
		seen[v.Model] = struct{}{}
		models = append(models, v.Model)
	}
	return models
}

// Revision returns the mutation counter. It increases on every committed
// mutation and starts at 0 when the store is opened.
func (s *Store) Revision() int64 {
	return s.revision.Current()
}

// Subscribe registers fn for every committed mutation and returns a function
// that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	return s.observers.add(fn)
}
