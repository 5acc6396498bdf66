package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ParseVariables decodes the variables text of a config into string values.
// Non-string JSON values are rendered with their JSON encoding.
// An empty text yields an empty map.
func ParseVariables(text string) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]string{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse variables: %w", err)
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			vars[k] = s
			continue
		}
		vars[k] = string(v)
	}
	return vars, nil
}

// Render replaces {{name}} placeholders with values from vars.
// Placeholders without a value are left in place and reported as missing.
func Render(template string, vars map[string]string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	out := variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		key := variablePattern.FindStringSubmatch(match)[1]
		if val, ok := vars[key]; ok {
			return val
		}
		if !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return match
	})

	return out, missing
}

// ExtractVariables returns the distinct placeholder names in template, in order
// of first appearance.
func ExtractVariables(template string) []string {
	matches := variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Rendered returns the system and user prompts with variables interpolated.
// When the variables text is not a JSON object the prompts come back verbatim;
// variables are never a hard error.
func (c Config) Rendered() (system, user string) {
	vars, err := ParseVariables(c.Variables)
	if err != nil {
		return c.SystemPrompt, c.UserPrompt
	}
	system, _ = Render(c.SystemPrompt, vars)
	user, _ = Render(c.UserPrompt, vars)
	return system, user
}
