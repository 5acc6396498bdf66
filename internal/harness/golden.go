package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/promptlab/internal/prompt"
)

// Snapshot captures the deterministic part of a scenario execution: the step
// trace and the final version list. Execution metadata (token counts,
// latency) is left out.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Trace        []TraceEvent     `json:"trace"`
	Versions     []VersionSummary `json:"versions"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Versions:     result.Versions,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. prompt.MarshalCanonical only handles primitives, slices and
// maps.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":     event.Seq,
			"action":  event.Action,
			"outcome": event.Outcome,
			"count":   event.Count,
		}
		if event.Ref != "" {
			eventMap["ref"] = event.Ref
		}
		if event.Version != "" {
			eventMap["version"] = event.Version
		}
		if event.Action == StepDeleteMany {
			eventMap["removed"] = event.Removed
		}
		trace[i] = eventMap
	}

	list := make([]any, len(s.Versions))
	for i, v := range s.Versions {
		list[i] = map[string]any{
			"id":    v.ID,
			"label": v.Label,
			"model": v.Model,
			"note":  v.Note,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"versions":      list,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return prompt.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
