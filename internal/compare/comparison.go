package compare

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/promptlab/internal/prompt"
)

// Comparison is the side-by-side view of two versions.
type Comparison struct {
	A          prompt.Version `json:"a" yaml:"a"`
	B          prompt.Version `json:"b" yaml:"b"`
	Rows       []Row          `json:"rows" yaml:"rows"`
	Diffs      []TextDiff     `json:"diffs" yaml:"diffs"`
	SameConfig bool           `json:"same_config" yaml:"same_config"`
}

// Row is one line of the paired metadata table.
type Row struct {
	Label   string `json:"label" yaml:"label"`
	A       string `json:"a" yaml:"a"`
	B       string `json:"b" yaml:"b"`
	Differs bool   `json:"differs" yaml:"differs"`
}

// TextDiff is a unified line diff of one text field from A to B.
// Unified is empty when the texts are identical.
type TextDiff struct {
	Field   string `json:"field" yaml:"field"`
	Unified string `json:"unified,omitempty" yaml:"unified,omitempty"`
	Hunks   []Hunk `json:"hunks,omitempty" yaml:"hunks,omitempty"`
	Added   int    `json:"added" yaml:"added"`
	Deleted int    `json:"deleted" yaml:"deleted"`
}

// Hunk is one region of a TextDiff.
type Hunk struct {
	OrigStart int32    `json:"orig_start" yaml:"orig_start"`
	OrigLines int32    `json:"orig_lines" yaml:"orig_lines"`
	NewStart  int32    `json:"new_start" yaml:"new_start"`
	NewLines  int32    `json:"new_lines" yaml:"new_lines"`
	Lines     []string `json:"lines" yaml:"lines"`
}

// Changed reports whether the two texts differ.
func (d TextDiff) Changed() bool {
	return d.Unified != ""
}

// Row labels in display order.
const (
	RowModel        = "Model"
	RowInputTokens  = "Input Tokens"
	RowOutputTokens = "Output Tokens"
	RowLatency      = "Latency"
	RowTemperature  = "Temperature"
	RowMaxTokens    = "Max Tokens"
)

// Diffed text fields.
const (
	FieldSystemPrompt = "system_prompt"
	FieldUserPrompt   = "user_prompt"
	FieldOutput       = "output"
)

// Build compares a (left) with b (right). It is a pure function.
func Build(a, b prompt.Version) (Comparison, error) {
	c := Comparison{
		A:          a,
		B:          b,
		Rows:       Rows(a, b),
		SameConfig: a.Fingerprint != "" && a.Fingerprint == b.Fingerprint,
	}

	fields := []struct {
		name string
		a, b string
	}{
		{FieldSystemPrompt, a.SystemPrompt, b.SystemPrompt},
		{FieldUserPrompt, a.UserPrompt, b.UserPrompt},
		{FieldOutput, a.Output, b.Output},
	}
	for _, f := range fields {
		d, err := Diff(f.name, a.Label(), b.Label(), f.a, f.b)
		if err != nil {
			return Comparison{}, err
		}
		c.Diffs = append(c.Diffs, d)
	}
	return c, nil
}

// Rows builds the paired metadata table. Integers use thousands separators.
func Rows(a, b prompt.Version) []Row {
	p := message.NewPrinter(language.English)

	pair := func(label, av, bv string) Row {
		return Row{Label: label, A: av, B: bv, Differs: av != bv}
	}

	return []Row{
		pair(RowModel, a.Metadata.Model, b.Metadata.Model),
		pair(RowInputTokens, p.Sprintf("%d", a.Metadata.InputTokens), p.Sprintf("%d", b.Metadata.InputTokens)),
		pair(RowOutputTokens, p.Sprintf("%d", a.Metadata.OutputTokens), p.Sprintf("%d", b.Metadata.OutputTokens)),
		pair(RowLatency, p.Sprintf("%d ms", a.Metadata.LatencyMs), p.Sprintf("%d ms", b.Metadata.LatencyMs)),
		pair(RowTemperature, fmt.Sprintf("%.2f", a.Temperature), fmt.Sprintf("%.2f", b.Temperature)),
		pair(RowMaxTokens, p.Sprintf("%d", a.MaxTokens), p.Sprintf("%d", b.MaxTokens)),
	}
}

// Diff produces the unified diff of one text field, labelled with the two
// version labels, and counts added and deleted lines.
func Diff(field, fromLabel, toLabel, from, to string) (TextDiff, error) {
	d := TextDiff{Field: field}
	if from == to {
		return d, nil
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromLabel + "/" + field,
		ToFile:   toLabel + "/" + field,
		Context:  3,
	})
	if err != nil {
		return TextDiff{}, fmt.Errorf("diff %s: %w", field, err)
	}
	if unified == "" {
		// Only a trailing newline differs; SplitLines hides it.
		return d, nil
	}
	d.Unified = unified

	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return TextDiff{}, fmt.Errorf("parse diff %s: %w", field, err)
	}
	for _, h := range fd.Hunks {
		lines := strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n")
		for _, line := range lines {
			switch {
			case strings.HasPrefix(line, "+"):
				d.Added++
			case strings.HasPrefix(line, "-"):
				d.Deleted++
			}
		}
		d.Hunks = append(d.Hunks, Hunk{
			OrigStart: h.OrigStartLine,
			OrigLines: h.OrigLines,
			NewStart:  h.NewStartLine,
			NewLines:  h.NewLines,
			Lines:     lines,
		})
	}
	return d, nil
}
