package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// chdirTemp moves into an empty directory so ./promptlab.yaml is absent.
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execute.Delay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s execute delay, got %v", cfg.Execute.Delay)
	}
	if cfg.Auth.Delay != 500*time.Millisecond {
		t.Errorf("expected 500ms auth delay, got %v", cfg.Auth.Delay)
	}
	if cfg.Execute.Tokenizer != TokenizerRandom {
		t.Errorf("expected random tokenizer by default, got %s", cfg.Execute.Tokenizer)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".promptlab", "promptlab.db")) {
		t.Errorf("unexpected default db path %s", cfg.DBPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultEntries(t *testing.T) {
	requiredKeys := []string{
		"db_path",
		"execute.delay",
		"execute.tokenizer",
		"execute.seed",
		"auth.delay",
		"auth.required",
		"log.level",
	}

	keys := make(map[string]bool)
	for _, e := range DefaultEntries() {
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("entry %s has no description", e.Key)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("log.level")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "info" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "info")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		if entry := GetDefault("does.not.exist"); entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Execute.Delay != 1500*time.Millisecond {
			t.Errorf("expected default delay, got %v", cfg.Execute.Delay)
		}
		if cfg.Auth.Required {
			t.Error("auth should not be required by default")
		}
	})

	t.Run("loads from config file", func(t *testing.T) {
		chdirTemp(t)
		path := writeConfig(t, `
db_path: /tmp/lab.db
execute:
  delay: 0s
  tokenizer: tiktoken
  seed: 42
auth:
  required: true
log:
  level: DEBUG
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.DBPath != "/tmp/lab.db" {
			t.Errorf("expected /tmp/lab.db, got %s", cfg.DBPath)
		}
		if cfg.Execute.Delay != 0 {
			t.Errorf("expected zero delay, got %v", cfg.Execute.Delay)
		}
		if cfg.Execute.Tokenizer != TokenizerTiktoken {
			t.Errorf("expected tiktoken tokenizer, got %s", cfg.Execute.Tokenizer)
		}
		if cfg.Execute.Seed != 42 {
			t.Errorf("expected seed 42, got %d", cfg.Execute.Seed)
		}
		if !cfg.Auth.Required {
			t.Error("expected auth.required")
		}
		// Unset keys keep their defaults
		if cfg.Auth.Delay != 500*time.Millisecond {
			t.Errorf("expected default auth delay, got %v", cfg.Auth.Delay)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected level normalized to debug, got %s", cfg.Log.Level)
		}
	})

	t.Run("finds promptlab.yaml in working directory", func(t *testing.T) {
		chdirTemp(t)
		if err := os.WriteFile("promptlab.yaml", []byte("db_path: ./here.db\n"), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.DBPath != "./here.db" {
			t.Errorf("expected ./here.db, got %s", cfg.DBPath)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		chdirTemp(t)
		path := writeConfig(t, "db_path: /tmp/file.db\n")
		t.Setenv("PROMPTLAB_DB_PATH", "/tmp/env.db")
		t.Setenv("PROMPTLAB_EXECUTE_DELAY", "250ms")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.DBPath != "/tmp/env.db" {
			t.Errorf("expected /tmp/env.db, got %s", cfg.DBPath)
		}
		if cfg.Execute.Delay != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %v", cfg.Execute.Delay)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		chdirTemp(t)
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		chdirTemp(t)
		path := writeConfig(t, `
execute:
  tokenizer: sentencepiece
log:
  level: loud
`)

		_, err := Load(path)
		if err == nil {
			t.Fatal("expected validation error")
		}
		for _, want := range []string{"execute.tokenizer", "log.level"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q should mention %s", err, want)
			}
		}
	})
}

func TestValidate_NegativeDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Delay = -time.Second

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative delay")
	}
	if !strings.Contains(err.Error(), "auth.delay") {
		t.Errorf("error %q should mention auth.delay", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	for level, want := range map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
		"":      "INFO",
	} {
		cfg.Log.Level = level
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", level, got, want)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# promptlab configuration") {
		t.Error("expected header comment")
	}
	if !strings.Contains(string(data), "delay: 1.5s") {
		t.Errorf("expected human-readable duration, got:\n%s", data)
	}

	// The written file loads back to the defaults
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Execute.Delay != 1500*time.Millisecond || cfg.Auth.Delay != 500*time.Millisecond {
		t.Errorf("round trip changed delays: %+v", cfg)
	}

	// Refuses to overwrite without force
	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error when file exists")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) error: %v", err)
	}
}
