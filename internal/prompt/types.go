package prompt

import (
	"fmt"
	"time"
)

// Config is the in-progress draft of a prompt before it is saved as a version.
type Config struct {
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt   string  `json:"user_prompt" yaml:"user_prompt"`
	Variables    string  `json:"variables" yaml:"variables"` // raw text, expected to be a JSON object
	Model        string  `json:"model" yaml:"model" validate:"required"`
	Temperature  float64 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=1"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" validate:"gte=1,lte=4096"`
}

// DefaultVariables is the variables text of a fresh draft.
const DefaultVariables = "{\n  \"tone\": \"formal\",\n  \"length\": \"short\"\n}"

// DefaultModel is the model of a fresh draft.
const DefaultModel = "gpt-4o-mini"

// KnownModels lists the models offered by the editor. Model stays free-form;
// this list only drives help text and completion.
var KnownModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-3.5-turbo",
	"claude-3-sonnet",
	"claude-3-haiku",
}

// DefaultConfig returns the draft a new workspace starts with.
func DefaultConfig() Config {
	return Config{
		Variables:   DefaultVariables,
		Model:       DefaultModel,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// ConfigPatch is a partial Config update. Nil fields are left unchanged.
type ConfigPatch struct {
	SystemPrompt *string
	UserPrompt   *string
	Variables    *string
	Model        *string
	Temperature  *float64
	MaxTokens    *int
}

// Empty reports whether the patch changes nothing.
func (p ConfigPatch) Empty() bool {
	return p.SystemPrompt == nil && p.UserPrompt == nil && p.Variables == nil &&
		p.Model == nil && p.Temperature == nil && p.MaxTokens == nil
}

// Apply returns c with the patch merged in.
func (c Config) Apply(p ConfigPatch) Config {
	if p.SystemPrompt != nil {
		c.SystemPrompt = *p.SystemPrompt
	}
	if p.UserPrompt != nil {
		c.UserPrompt = *p.UserPrompt
	}
	if p.Variables != nil {
		c.Variables = *p.Variables
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	if p.Temperature != nil {
		c.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		c.MaxTokens = *p.MaxTokens
	}
	return c
}

// Metadata is the execution statistics captured once per run.
type Metadata struct {
	Model        string    `json:"model" yaml:"model"`
	InputTokens  int       `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int       `json:"output_tokens" yaml:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms" yaml:"latency_ms"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}

// TotalTokens returns input plus output tokens.
func (m Metadata) TotalTokens() int {
	return m.InputTokens + m.OutputTokens
}

// Version is an immutable snapshot of a config plus its captured execution
// result. Only Note may change after creation.
type Version struct {
	ID      string `json:"id" yaml:"id"`
	Version int64  `json:"version" yaml:"version"`
	Config  `yaml:",inline"`

	Output      string    `json:"output" yaml:"output"`
	Metadata    Metadata  `json:"metadata" yaml:"metadata"`
	Note        string    `json:"note" yaml:"note"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Fingerprint string    `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// Label renders the version number the way users type it, e.g. "v3".
func (v Version) Label() string {
	return fmt.Sprintf("v%d", v.Version)
}

// Collection is the persisted form of the version store.
//
// Versions are ordered newest first. LastVersion is the high-water mark of
// assigned version numbers; it only grows, so numbers are never reused after
// deletions.
type Collection struct {
	LastVersion int64     `json:"last_version"`
	Versions    []Version `json:"versions"`
}

// HighWater returns the larger of LastVersion and the highest version present.
// Collections written without a counter derive it from their records.
func (c Collection) HighWater() int64 {
	hw := c.LastVersion
	for _, v := range c.Versions {
		if v.Version > hw {
			hw = v.Version
		}
	}
	return hw
}
