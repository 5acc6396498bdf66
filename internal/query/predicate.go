package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/promptlab/internal/prompt"
)

// Predicate is a filter condition over a single version.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Contains matches when any searchable field contains Text, ignoring case.
// Searchable fields: note, system prompt, user prompt, model, "vN" label.
type Contains struct {
	Text string
}

func (Contains) predicateNode() {}

// ModelEquals matches versions whose model is exactly Model.
type ModelEquals struct {
	Model string
}

func (ModelEquals) predicateNode() {}

// And matches when every predicate matches. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Match reports whether v satisfies p. A nil predicate matches everything.
func Match(p Predicate, v prompt.Version) bool {
	return newMatcher().match(p, v)
}

// matcher holds the case folder. cases.Caser is not safe for concurrent use,
// so each evaluation pass gets its own.
type matcher struct {
	fold cases.Caser
}

func newMatcher() *matcher {
	return &matcher{fold: cases.Fold()}
}

func (m *matcher) match(p Predicate, v prompt.Version) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Contains:
		return m.contains(pred.Text, v)
	case ModelEquals:
		return v.Model == pred.Model
	case And:
		for _, sub := range pred.Predicates {
			if !m.match(sub, v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (m *matcher) contains(text string, v prompt.Version) bool {
	needle := m.fold.String(text)
	for _, field := range []string{v.Note, v.SystemPrompt, v.UserPrompt, v.Model, v.Label()} {
		if strings.Contains(m.fold.String(field), needle) {
			return true
		}
	}
	return false
}
