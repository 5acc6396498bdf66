package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/playground"
)

// AssertionContext provides the final state for assertions.
type AssertionContext struct {
	Playground *playground.Playground
	Selector   *compare.Selector
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Action)
		if event.Ref != "" {
			fmt.Fprintf(&buf, " %s", event.Ref)
		}
		fmt.Fprintf(&buf, " -> %s (%d stored)\n", event.Outcome, event.Count)
	}

	return buf.String()
}

// assertCount checks the number of stored versions.
func assertCount(trace []TraceEvent, actx *AssertionContext, assertion Assertion) error {
	n := actx.Playground.Versions().Len()
	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d versions", assertion.Count),
			Actual:   fmt.Sprintf("%d versions", n),
			Trace:    trace,
		}
	}
	return nil
}

// assertVersions checks the labels returned by a query, in order.
func assertVersions(trace []TraceEvent, actx *AssertionContext, assertion Assertion) error {
	q, err := assertion.Query.Query()
	if err != nil {
		return err
	}

	got := []string{}
	for _, v := range actx.Playground.Query(q) {
		got = append(got, v.Label())
	}

	if !slices.Equal(got, assertion.Labels) {
		return &AssertionError{
			Type:     AssertVersions,
			Expected: fmt.Sprintf("%v for %s", assertion.Labels, describeQuery(assertion.Query)),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertNote checks the note of one version.
func assertNote(trace []TraceEvent, actx *AssertionContext, assertion Assertion) error {
	v, err := actx.Playground.Versions().Resolve(assertion.Ref)
	if err != nil {
		return &AssertionError{
			Type:     AssertNote,
			Expected: fmt.Sprintf("%s with note %q", assertion.Ref, assertion.Note),
			Actual:   "version not found",
			Trace:    trace,
		}
	}
	if v.Note != assertion.Note {
		return &AssertionError{
			Type:     AssertNote,
			Expected: fmt.Sprintf("%s with note %q", assertion.Ref, assertion.Note),
			Actual:   fmt.Sprintf("note %q", v.Note),
			Trace:    trace,
		}
	}
	return nil
}

// assertDraft checks the draft model and whether it holds a result.
func assertDraft(trace []TraceEvent, actx *AssertionContext, assertion Assertion) error {
	d := actx.Playground.Draft()

	if assertion.Model != "" && d.Config.Model != assertion.Model {
		return &AssertionError{
			Type:     AssertDraft,
			Expected: fmt.Sprintf("model %s", assertion.Model),
			Actual:   fmt.Sprintf("model %s", d.Config.Model),
			Trace:    trace,
		}
	}
	if assertion.HasRun != nil && d.HasRun() != *assertion.HasRun {
		return &AssertionError{
			Type:     AssertDraft,
			Expected: fmt.Sprintf("has_run %t", *assertion.HasRun),
			Actual:   fmt.Sprintf("has_run %t", d.HasRun()),
			Trace:    trace,
		}
	}
	return nil
}

// assertSelection checks the labels held by the comparison slots and,
// when given, the selector state.
func assertSelection(trace []TraceEvent, actx *AssertionContext, assertion Assertion) error {
	a, b := actx.Selector.Selection()
	gotA := labelOf(actx, a)
	gotB := labelOf(actx, b)

	if gotA != assertion.A || gotB != assertion.B {
		return &AssertionError{
			Type:     AssertSelection,
			Expected: fmt.Sprintf("a=%q b=%q", assertion.A, assertion.B),
			Actual:   fmt.Sprintf("a=%q b=%q", gotA, gotB),
			Trace:    trace,
		}
	}

	if assertion.State != "" {
		if got := actx.Selector.State().String(); got != assertion.State {
			return &AssertionError{
				Type:     AssertSelection,
				Expected: "state " + assertion.State,
				Actual:   "state " + got,
				Trace:    trace,
			}
		}
	}
	return nil
}

// labelOf returns the label for a slot id, or the id itself once the
// version is gone.
func labelOf(actx *AssertionContext, id string) string {
	if id == "" {
		return ""
	}
	v, err := actx.Playground.Versions().Get(id)
	if err != nil {
		return id
	}
	return v.Label()
}

func describeQuery(q *QueryArgs) string {
	if q == nil {
		return "default query"
	}
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", q.Search))
	}
	if q.Model != "" {
		parts = append(parts, "model="+q.Model)
	}
	if q.Sort != "" {
		parts = append(parts, "sort="+q.Sort)
	}
	if q.Order != "" {
		parts = append(parts, "order="+q.Order)
	}
	if len(parts) == 0 {
		return "default query"
	}
	return strings.Join(parts, " ")
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a list of error messages for failed assertions.
// Empty list means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Playground == nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s requires a playground", i, assertion.Type))
			continue
		}

		switch assertion.Type {
		case AssertCount:
			err = assertCount(result.Trace, actx, assertion)
		case AssertVersions:
			err = assertVersions(result.Trace, actx, assertion)
		case AssertNote:
			err = assertNote(result.Trace, actx, assertion)
		case AssertDraft:
			err = assertDraft(result.Trace, actx, assertion)
		case AssertSelection:
			if actx.Selector == nil {
				err = fmt.Errorf("assertion[%d]: selection requires a selector", i)
			} else {
				err = assertSelection(result.Trace, actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
