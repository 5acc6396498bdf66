package compare

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/versions"
)

// Slot names one side of a comparison.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// ParseSlot parses "a" or "b", ignoring case.
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(s)) {
	case SlotA:
		return SlotA, nil
	case SlotB:
		return SlotB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
	}
}

// State is the selector's derived state.
type State int

const (
	Idle State = iota
	Ready
	Comparing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Comparing:
		return "comparing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source resolves versions for the selector. versions.Store implements it.
type Source interface {
	Get(id string) (prompt.Version, error)
	Len() int
}

// Selector is the two-slot comparison state machine.
// It only reads from its source.
type Selector struct {
	src Source

	mu        sync.Mutex
	a, b      string
	comparing bool
}

// NewSelector returns an idle selector over src.
func NewSelector(src Source) *Selector {
	return &Selector{src: src}
}

// Select puts id into slot. On error the slot is unchanged.
//
// Errors: ErrNotEnoughVersions when fewer than two versions exist,
// ErrNotFound for an unknown id, ErrSameVersion when the other slot already
// holds id.
func (s *Selector) Select(slot Slot, id string) error {
	if slot != SlotA && slot != SlotB {
		return fmt.Errorf("select: %w: %q", ErrUnknownSlot, slot)
	}
	if s.src.Len() < 2 {
		return fmt.Errorf("select %s: %w", slot, ErrNotEnoughVersions)
	}
	if _, err := s.src.Get(id); err != nil {
		if errors.Is(err, versions.ErrNotFound) {
			return fmt.Errorf("select %s: %s: %w", slot, id, ErrNotFound)
		}
		return fmt.Errorf("select %s: %w", slot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, other := &s.a, s.b
	if slot == SlotB {
		current, other = &s.b, s.a
	}
	if id == other {
		return fmt.Errorf("select %s: %s: %w", slot, id, ErrSameVersion)
	}
	if *current != id {
		*current = id
		s.comparing = false
	}
	return nil
}

// Clear empties slot and ends any active comparison.
func (s *Selector) Clear(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch slot {
	case SlotA:
		s.a = ""
	case SlotB:
		s.b = ""
	default:
		return
	}
	s.comparing = false
}

// Selection returns the raw slot contents; empty means unselected.
func (s *Selector) Selection() (a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a, s.b
}

// Reset leaves the comparing state. Selections are kept.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparing = false
}

// State derives the current state from the slots and the source.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.resolve(); !ok {
		return Idle
	}
	if s.comparing {
		return Comparing
	}
	return Ready
}

// Compare builds the comparison of the two selected versions and enters the
// comparing state. Returns ErrNotReady unless both slots resolve to distinct
// versions.
func (s *Selector) Compare() (Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, b, ok := s.resolve()
	if !ok {
		return Comparison{}, ErrNotReady
	}

	c, err := Build(a, b)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare: %w", err)
	}
	s.comparing = true
	return c, nil
}

// resolve looks up both slots. Caller must hold s.mu.
func (s *Selector) resolve() (prompt.Version, prompt.Version, bool) {
	if s.a == "" || s.b == "" || s.a == s.b {
		return prompt.Version{}, prompt.Version{}, false
	}
	a, err := s.src.Get(s.a)
	if err != nil {
		return prompt.Version{}, prompt.Version{}, false
	}
	b, err := s.src.Get(s.b)
	if err != nil {
		return prompt.Version{}, prompt.Version{}, false
	}
	return a, b, true
}
