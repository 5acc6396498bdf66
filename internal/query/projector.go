package query

import (
	"slices"
	"sync"

	"github.com/roach88/promptlab/internal/prompt"
)

// Source is a revisioned version collection. versions.Store implements it.
type Source interface {
	List() []prompt.Version
	Revision() int64
}

// Projector memoizes the last projection of a Source.
//
// The cached result is reused while both the source revision and the query
// are unchanged; anything else recomputes.
type Projector struct {
	src Source

	mu       sync.Mutex
	valid    bool
	revision int64
	query    Query
	result   []prompt.Version
	computed int
}

// NewProjector returns a projector over src.
func NewProjector(src Source) *Projector {
	return &Projector{src: src}
}

// Project returns Apply(src.List(), q), reusing the cached result when
// possible. Callers get their own copy.
func (p *Projector) Project(q Query) []prompt.Version {
	q = q.normalized()
	rev := p.src.Revision()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.valid || p.revision != rev || p.query != q {
		p.result = Apply(p.src.List(), q)
		p.revision = rev
		p.query = q
		p.valid = true
		p.computed++
	}
	return slices.Clone(p.result)
}

// Computations returns how many times the projection was recomputed.
func (p *Projector) Computations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computed
}
