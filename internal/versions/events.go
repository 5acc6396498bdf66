package versions

import (
	"slices"
	"sync"
)

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventAppended    EventKind = "append"
	EventDeleted     EventKind = "delete"
	EventNoteUpdated EventKind = "note"
)

// Event describes one committed mutation.
type Event struct {
	Kind     EventKind
	IDs      []string
	Revision int64
}

// Observer receives events after the new collection is in place.
// Observers run synchronously on the mutating goroutine and may read the store.
type Observer func(Event)

// observers is a registry of subscribed callbacks.
type observers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]Observer
}

func (o *observers) add(fn Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[int]Observer)
	}
	id := o.nextID
	o.nextID++
	o.fns[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

// notify calls every observer in subscription order.
func (o *observers) notify(ev Event) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	fns := make(map[int]Observer, len(o.fns))
	for id, fn := range o.fns {
		fns[id] = fn
	}
	o.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		fns[id](ev)
	}
}
