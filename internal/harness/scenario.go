package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/promptlab/internal/compare"
	"github.com/roach88/promptlab/internal/prompt"
	"github.com/roach88/promptlab/internal/query"
)

// Scenario defines a playground scenario.
// Scenarios drive a fresh playground through a list of steps and then check
// the resulting version collection, draft and comparison selection.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed feeds the mock executor's random source.
	Seed uint64 `yaml:"seed,omitempty"`

	// Steps run in order against the playground.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: count, versions, note, draft, selection
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one playground operation.
type Step struct {
	// Action is one of the Step* constants.
	Action string `yaml:"action"`

	// Config is the partial config applied by set_config.
	Config *ConfigArgs `yaml:"config,omitempty"`

	// Note is the note attached by save and note.
	Note string `yaml:"note,omitempty"`

	// Ref is a version id or label ("v3") for delete, note, load, duplicate
	// and select.
	Ref string `yaml:"ref,omitempty"`

	// Refs lists the versions removed by delete_many.
	Refs []string `yaml:"refs,omitempty"`

	// Slot is "a" or "b" for select and clear.
	Slot string `yaml:"slot,omitempty"`

	// Error names the error this step is expected to fail with
	// (see ErrorName). Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// ConfigArgs is the YAML form of prompt.ConfigPatch. Absent fields are left
// unchanged.
type ConfigArgs struct {
	SystemPrompt *string  `yaml:"system_prompt,omitempty"`
	UserPrompt   *string  `yaml:"user_prompt,omitempty"`
	Variables    *string  `yaml:"variables,omitempty"`
	Model        *string  `yaml:"model,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	MaxTokens    *int     `yaml:"max_tokens,omitempty"`
}

// Patch converts the arguments to a config patch.
func (c *ConfigArgs) Patch() prompt.ConfigPatch {
	if c == nil {
		return prompt.ConfigPatch{}
	}
	return prompt.ConfigPatch{
		SystemPrompt: c.SystemPrompt,
		UserPrompt:   c.UserPrompt,
		Variables:    c.Variables,
		Model:        c.Model,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	}
}

// QueryArgs is the YAML form of query.Query. Empty fields take the defaults.
type QueryArgs struct {
	Search string `yaml:"search,omitempty"`
	Model  string `yaml:"model,omitempty"`
	Sort   string `yaml:"sort,omitempty"`
	Order  string `yaml:"order,omitempty"`
}

// Query converts the arguments to a validated query.
func (q *QueryArgs) Query() (query.Query, error) {
	out := query.Default()
	if q == nil {
		return out, nil
	}
	out.Search = q.Search
	if q.Model != "" {
		out.Model = q.Model
	}
	if q.Sort != "" {
		f, err := query.ParseSortField(q.Sort)
		if err != nil {
			return query.Query{}, err
		}
		out.Sort = f
	}
	if q.Order != "" {
		o, err := query.ParseSortOrder(q.Order)
		if err != nil {
			return query.Query{}, err
		}
		out.Order = o
	}
	return out, nil
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "count": number of stored versions
	// - "versions": labels, in order, returned by a query
	// - "note": note of one version
	// - "draft": draft model and whether it carries a result
	// - "selection": labels held by the comparison slots and the selector state
	Type string `yaml:"type"`

	// Count is the expected number of versions (used by count).
	Count int `yaml:"count,omitempty"`

	// Query filters and sorts the list (used by versions).
	Query *QueryArgs `yaml:"query,omitempty"`

	// Labels are the expected version labels in order (used by versions).
	Labels []string `yaml:"labels,omitempty"`

	// Ref selects the version (used by note).
	Ref string `yaml:"ref,omitempty"`

	// Note is the expected note (used by note).
	Note string `yaml:"note,omitempty"`

	// Model is the expected draft model (used by draft). Empty skips the check.
	Model string `yaml:"model,omitempty"`

	// HasRun is whether the draft holds a result (used by draft).
	HasRun *bool `yaml:"has_run,omitempty"`

	// A and B are the expected slot labels; empty means unselected
	// (used by selection).
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`

	// State is the expected selector state: idle, ready or comparing
	// (used by selection). Empty skips the check.
	State string `yaml:"state,omitempty"`
}

// Step action constants.
const (
	StepSetConfig    = "set_config"
	StepRun          = "run"
	StepSave         = "save"
	StepDelete       = "delete"
	StepDeleteMany   = "delete_many"
	StepNote         = "note"
	StepLoad         = "load"
	StepDuplicate    = "duplicate"
	StepReset        = "reset"
	StepSelect       = "select"
	StepClear        = "clear"
	StepCompare      = "compare"
	StepResetCompare = "reset_compare"
)

// Assertion type constants.
const (
	AssertCount     = "count"
	AssertVersions  = "versions"
	AssertNote      = "note"
	AssertDraft     = "draft"
	AssertSelection = "selection"
)

// selectorStates are the names a selection assertion may expect.
var selectorStates = []string{
	compare.Idle.String(),
	compare.Ready.String(),
	compare.Comparing.String(),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its action.
func validateStep(index int, s *Step) error {
	if s.Action == "" {
		return fmt.Errorf("steps[%d]: action is required", index)
	}

	switch s.Action {
	case StepRun, StepSave, StepReset, StepCompare, StepResetCompare:
	case StepSetConfig:
		if s.Config == nil || s.Config.Patch().Empty() {
			return fmt.Errorf("steps[%d]: config is required for set_config", index)
		}
	case StepDelete, StepNote, StepLoad, StepDuplicate:
		if s.Ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for %s", index, s.Action)
		}
	case StepDeleteMany:
		if len(s.Refs) == 0 {
			return fmt.Errorf("steps[%d]: refs list is required for delete_many", index)
		}
	case StepSelect:
		if s.Ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for select", index)
		}
		if _, err := compare.ParseSlot(s.Slot); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case StepClear:
		if _, err := compare.ParseSlot(s.Slot); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, s.Action)
	}

	if s.Error != "" && !isKnownErrorName(s.Error) {
		return fmt.Errorf("steps[%d]: unknown error name %q", index, s.Error)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertVersions:
		if a.Labels == nil {
			return fmt.Errorf("assertions[%d]: labels list is required for versions (use [] for none)", index)
		}
		if _, err := a.Query.Query(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertNote:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for note", index)
		}
	case AssertDraft:
		if a.Model == "" && a.HasRun == nil {
			return fmt.Errorf("assertions[%d]: model or has_run is required for draft", index)
		}
	case AssertSelection:
		if a.State != "" && !slices.Contains(selectorStates, a.State) {
			return fmt.Errorf("assertions[%d]: unknown selector state %q", index, a.State)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
