package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/promptlab/internal/query"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
seed: 42
steps:
  - action: set_config
    config:
      model: gpt-4o
      temperature: 0.3
      max_tokens: 256
  - action: run
  - action: save
    note: "first"
assertions:
  - type: versions
    query: { search: first, sort: tokens, order: asc }
    labels: [v1]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, uint64(42), scenario.Seed)
	require.Len(t, scenario.Steps, 3)
	require.Len(t, scenario.Assertions, 1)

	patch := scenario.Steps[0].Config.Patch()
	require.NotNil(t, patch.Model)
	assert.Equal(t, "gpt-4o", *patch.Model)
	require.NotNil(t, patch.Temperature)
	assert.Equal(t, 0.3, *patch.Temperature)
	require.NotNil(t, patch.MaxTokens)
	assert.Equal(t, 256, *patch.MaxTokens)
	assert.Nil(t, patch.UserPrompt)

	assert.Equal(t, "first", scenario.Steps[2].Note)

	q, err := scenario.Assertions[0].Query.Query()
	require.NoError(t, err)
	assert.Equal(t, query.Query{Search: "first", Model: query.AllModels, Sort: query.SortTokens, Order: query.Asc}, q)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled assertions key"
steps:
  - action: run
assertion:
  - type: count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
steps: [{action: run}]
assertions: [{type: count}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
steps: [{action: run}]
assertions: [{type: count}]
`,
			wantErr: "description is required",
		},
		{
			name: "no steps",
			content: `
name: n
description: d
assertions: [{type: count}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			content: `
name: n
description: d
steps: [{action: run}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown action",
			content: `
name: n
description: d
steps: [{action: explode}]
assertions: [{type: count}]
`,
			wantErr: `steps[0]: unknown action "explode"`,
		},
		{
			name: "set_config without config",
			content: `
name: n
description: d
steps: [{action: set_config}]
assertions: [{type: count}]
`,
			wantErr: "config is required for set_config",
		},
		{
			name: "delete without ref",
			content: `
name: n
description: d
steps: [{action: delete}]
assertions: [{type: count}]
`,
			wantErr: "ref is required for delete",
		},
		{
			name: "delete_many without refs",
			content: `
name: n
description: d
steps: [{action: delete_many}]
assertions: [{type: count}]
`,
			wantErr: "refs list is required for delete_many",
		},
		{
			name: "select with bad slot",
			content: `
name: n
description: d
steps: [{action: select, slot: c, ref: v1}]
assertions: [{type: count}]
`,
			wantErr: "steps[0]",
		},
		{
			name: "unknown error name",
			content: `
name: n
description: d
steps: [{action: save, error: kaboom}]
assertions: [{type: count}]
`,
			wantErr: `unknown error name "kaboom"`,
		},
		{
			name: "busy is not a step outcome",
			content: `
name: n
description: d
steps: [{action: compare, error: busy}]
assertions: [{type: count}]
`,
			wantErr: `unknown error name "busy"`,
		},
		{
			name: "selection with unknown state",
			content: `
name: n
description: d
steps: [{action: compare, error: not_ready}]
assertions: [{type: selection, state: diffing}]
`,
			wantErr: `unknown selector state "diffing"`,
		},
		{
			name: "unknown assertion",
			content: `
name: n
description: d
steps: [{action: run}]
assertions: [{type: trace_contains}]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "versions without labels",
			content: `
name: n
description: d
steps: [{action: run}]
assertions: [{type: versions}]
`,
			wantErr: "labels list is required for versions",
		},
		{
			name: "versions with bad sort",
			content: `
name: n
description: d
steps: [{action: run}]
assertions: [{type: versions, labels: [], query: {sort: size}}]
`,
			wantErr: "unknown sort field",
		},
		{
			name: "negative count",
			content: `
name: n
description: d
steps: [{action: run}]
assertions: [{type: count, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "empty draft assertion",
			content: `
name: n
description: d
steps: [{action: run}]
assertions: [{type: draft}]
`,
			wantErr: "model or has_run is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_EmptyLabelsAllowed(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: n
description: d
steps: [{action: run}]
assertions: [{type: versions, labels: []}]
`))
	require.NoError(t, err)
	assert.NotNil(t, scenario.Assertions[0].Labels)
	assert.Empty(t, scenario.Assertions[0].Labels)
}

func TestQueryArgs_NilIsDefault(t *testing.T) {
	var args *QueryArgs
	q, err := args.Query()
	require.NoError(t, err)
	assert.Equal(t, query.Default(), q)
}
