package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// DomainConfig separates config fingerprints from any other hash the
// application might compute. The version suffix allows algorithm migration.
const DomainConfig = "promptlab/config/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content fingerprint of a config. Two configs with
// identical prompts, variables, model, temperature (to two decimals) and max
// tokens share a fingerprint.
func Fingerprint(c Config) (string, error) {
	obj := map[string]any{
		"system_prompt":     c.SystemPrompt,
		"user_prompt":       c.UserPrompt,
		"variables":         c.Variables,
		"model":             c.Model,
		"temperature_centi": int64(math.Round(c.Temperature * 100)),
		"max_tokens":        c.MaxTokens,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Config only holds strings and numbers, so the error path is unreachable in
// practice.
func MustFingerprint(c Config) string {
	fp, err := Fingerprint(c)
	if err != nil {
		panic(err)
	}
	return fp
}
