package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/promptlab/internal/prompt"
)

// SortField selects the key versions are ordered by.
type SortField string

const (
	SortVersion   SortField = "version"
	SortTimestamp SortField = "timestamp"
	SortModel     SortField = "model"
	SortTokens    SortField = "tokens"
)

// SortFields lists every valid sort field.
var SortFields = []SortField{SortVersion, SortTimestamp, SortModel, SortTokens}

// SortOrder is the sort direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// AllModels is the model filter value that disables model filtering.
const AllModels = "all"

// Query is the full set of list view parameters.
type Query struct {
	Search string
	Model  string // AllModels or "" disables the filter
	Sort   SortField
	Order  SortOrder
}

// Default returns the query a list view starts with: newest version first,
// all models, no search.
func Default() Query {
	return Query{Model: AllModels, Sort: SortVersion, Order: Desc}
}

// ParseSortField parses a sort field name.
func ParseSortField(s string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(SortFields, f) {
		return "", fmt.Errorf("unknown sort field %q (want one of version, timestamp, model, tokens)", s)
	}
	return f, nil
}

// ParseSortOrder parses "asc" or "desc".
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
	}
}

// Validate rejects unknown sort fields and orders. Empty values are allowed
// and fall back to the defaults.
func (q Query) Validate() error {
	if q.Sort != "" && !slices.Contains(SortFields, q.Sort) {
		return fmt.Errorf("unknown sort field %q", q.Sort)
	}
	if q.Order != "" && q.Order != Asc && q.Order != Desc {
		return fmt.Errorf("unknown sort order %q", q.Order)
	}
	return nil
}

// Toggle returns q re-sorted by field. Selecting the current field flips the
// order; selecting a new field starts descending.
func (q Query) Toggle(field SortField) Query {
	q = q.normalized()
	if q.Sort == field {
		if q.Order == Desc {
			q.Order = Asc
		} else {
			q.Order = Desc
		}
		return q
	}
	q.Sort = field
	q.Order = Desc
	return q
}

// Filter compiles the search and model filter into a predicate.
// Returns nil when nothing filters.
func (q Query) Filter() Predicate {
	var preds []Predicate
	if q.Search != "" {
		preds = append(preds, Contains{Text: q.Search})
	}
	if q.Model != "" && q.Model != AllModels {
		preds = append(preds, ModelEquals{Model: q.Model})
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

func (q Query) normalized() Query {
	if q.Sort == "" {
		q.Sort = SortVersion
	}
	if q.Order == "" {
		q.Order = Desc
	}
	if q.Model == "" {
		q.Model = AllModels
	}
	return q
}

// Apply filters versions by q and sorts the survivors. The input is not
// modified; the result is a new slice. Equal keys keep their input order.
func Apply(versions []prompt.Version, q Query) []prompt.Version {
	q = q.normalized()

	filter := q.Filter()
	m := newMatcher()
	out := make([]prompt.Version, 0, len(versions))
	for _, v := range versions {
		if m.match(filter, v) {
			out = append(out, v)
		}
	}

	compare := comparator(q.Sort)
	if q.Order == Desc {
		asc := compare
		compare = func(a, b prompt.Version) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

// comparator returns the ascending comparison for field.
func comparator(field SortField) func(a, b prompt.Version) int {
	switch field {
	case SortTimestamp:
		return func(a, b prompt.Version) int {
			return a.Timestamp.Compare(b.Timestamp)
		}
	case SortModel:
		// collate.Collator is not safe for concurrent use; one per Apply.
		coll := collate.New(language.English)
		return func(a, b prompt.Version) int {
			return coll.CompareString(a.Model, b.Model)
		}
	case SortTokens:
		return func(a, b prompt.Version) int {
			return cmp.Compare(a.Metadata.TotalTokens(), b.Metadata.TotalTokens())
		}
	default:
		return func(a, b prompt.Version) int {
			return cmp.Compare(a.Version, b.Version)
		}
	}
}
