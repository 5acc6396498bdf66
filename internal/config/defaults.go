package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultDir returns the promptlab home directory, ~/.promptlab.
// Falls back to ./.promptlab when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".promptlab"
	}
	return filepath.Join(home, ".promptlab")
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath: filepath.Join(DefaultDir(), "promptlab.db"),
		Execute: ExecuteCfg{
			Delay:     1500 * time.Millisecond,
			Tokenizer: TokenizerRandom,
		},
		Auth: AuthCfg{
			Delay:    500 * time.Millisecond,
			Required: false,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// Entry is one configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries lists every configuration key with its default.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{Key: "db_path", Value: d.DBPath, Description: "SQLite database file"},
		{Key: "execute.delay", Value: d.Execute.Delay, Description: "Simulated latency of a run"},
		{Key: "execute.tokenizer", Value: d.Execute.Tokenizer, Description: "Input token counting: tiktoken or random"},
		{Key: "execute.seed", Value: d.Execute.Seed, Description: "Random seed for simulated metadata (0 = time based)"},
		{Key: "auth.delay", Value: d.Auth.Delay, Description: "Simulated latency of sign-in and sign-up"},
		{Key: "auth.required", Value: d.Auth.Required, Description: "Require a signed-in session for playground commands"},
		{Key: "log.level", Value: d.Log.Level, Description: "Log level: debug, info, warn, error"},
	}
}

// GetDefault returns the entry for key, or nil if the key is unknown.
func GetDefault(key string) *Entry {
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return &e
		}
	}
	return nil
}
