// Package harness runs playground scenarios.
//
// A scenario drives a fresh playground through a list of steps and then
// checks the final state. Each run gets an in-memory store, sequential
// version ids, a stepping clock and a seeded mock executor with no delay, so
// the same scenario always produces the same trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed: 7
//	steps:
//	  - action: set_config
//	    config: { model: gpt-4o, user_prompt: "Summarize {{topic}}" }
//	  - action: run
//	  - action: save
//	    note: "baseline"
//	  - action: delete
//	    ref: v9
//	    error: not_found
//	assertions:
//	  - type: count
//	    count: 1
//	  - type: versions
//	    query: { search: baseline, sort: version, order: asc }
//	    labels: [v1]
//
// # Steps
//
//   - set_config: merges config fields into the draft
//   - run: executes the draft with the seeded mock
//   - save: appends the draft as a new version, with an optional note
//   - delete, delete_many: remove versions by id or label
//   - note: replaces a version's note
//   - load, duplicate: copy a version into the draft
//   - reset: restores the default draft
//   - select, clear: fill or empty comparison slot a or b
//   - compare: compares the two selected versions
//   - reset_compare: leaves the comparing state, keeping both slots
//
// A step succeeds unless it names the error it expects: no_result,
// not_found, same_version, not_enough_versions, not_ready or validation.
//
// # Assertion Types
//
//   - count: number of stored versions
//   - versions: labels returned by a query, in order
//   - note: the note of one version
//   - draft: draft model and whether it holds a result
//   - selection: labels held by the comparison slots, and optionally the
//     selector state (idle, ready, comparing)
//
// # Golden Files
//
// RunWithGolden compares the step trace and final version list against
// testdata/golden/{name}.golden as canonical JSON. Regenerate with -update.
package harness
