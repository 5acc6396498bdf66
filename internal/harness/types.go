package harness

import (
	"errors"
	"slices"

	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/versions"
)

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq     int64  `json:"seq"`               // 1-based step number
	Action  string `json:"action"`            // step action
	Ref     string `json:"ref,omitempty"`     // reference given to the step
	Version string `json:"version,omitempty"` // label of the version saved or touched
	Outcome string `json:"outcome"`           // "ok" or an error name
	Removed int    `json:"removed,omitempty"` // versions removed by delete_many
	Count   int    `json:"count"`             // versions stored after the step
}

// VersionSummary is the part of a stored version that scenarios can pin.
type VersionSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Model string `json:"model"`
	Note  string `json:"note"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step met its expectation and
	// every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Versions is the final collection, newest first.
	Versions []VersionSummary `json:"versions"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Versions: []VersionSummary{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}

// Error names used by Step.Error and TraceEvent.Outcome.
const (
	OutcomeOK                = "ok"
	ErrNameNoResult          = "no_result"
	ErrNameNotFound          = "not_found"
	ErrNameSameVersion       = "same_version"
	ErrNameNotEnoughVersions = "not_enough_versions"
	ErrNameNotReady          = "not_ready"
	ErrNameValidation        = "validation"
)

var knownErrorNames = []string{
	ErrNameNoResult,
	ErrNameNotFound,
	ErrNameSameVersion,
	ErrNameNotEnoughVersions,
	ErrNameNotReady,
	ErrNameValidation,
}

func isKnownErrorName(name string) bool {
	return slices.Contains(knownErrorNames, name)
}

// ErrorName maps a playground error to its scenario name.
// Returns OutcomeOK for nil and "" for errors with no name, which a scenario
// cannot expect.
func ErrorName(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, versions.ErrNoResult):
		return ErrNameNoResult
	case errors.Is(err, versions.ErrNotFound), errors.Is(err, compare.ErrNotFound):
		return ErrNameNotFound
	case errors.Is(err, compare.ErrSameVersion):
		return ErrNameSameVersion
	case errors.Is(err, compare.ErrNotEnoughVersions):
		return ErrNameNotEnoughVersions
	case errors.Is(err, compare.ErrNotReady):
		return ErrNameNotReady
	case prompt.IsValidationError(err):
		return ErrNameValidation
	default:
		return ""
	}
}
