package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/promptlab/internal/prompt"
)

// timeLayout is the TEXT encoding of timestamps. Always UTC.
const timeLayout = time.RFC3339Nano

// marshalDocument converts a record value to JSON TEXT.
// HTML escaping is disabled so prompts containing < > & are stored verbatim.
func marshalDocument(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDocument parses JSON TEXT into dst.
func unmarshalDocument(data string, dst any) error {
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}

// marshalMetadata converts execution metadata to JSON TEXT.
func marshalMetadata(m prompt.Metadata) (string, error) {
	m.Timestamp = m.Timestamp.UTC()
	data, err := marshalDocument(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// unmarshalMetadata parses JSON TEXT to execution metadata.
func unmarshalMetadata(data string) (prompt.Metadata, error) {
	var m prompt.Metadata
	if data == "" || data == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return prompt.Metadata{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
