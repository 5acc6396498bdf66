// Package config loads promptlab configuration from defaults, an optional
// YAML file and PROMPTLAB_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PROMPTLAB_DB_PATH or
// PROMPTLAB_EXECUTE_DELAY.
const EnvPrefix = "PROMPTLAB"

// Load reads configuration. When cfgFile is empty, ./promptlab.yaml and then
// ~/.promptlab/config.yaml are tried; having neither is not an error. An
// explicit cfgFile must exist.
func Load(cfgFile string) (*Config, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("config loaded", "file", used)
	}
	return &cfg, nil
}

// newViper sets up a viper instance with defaults, env and config file.
func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with PROMPTLAB_ prefix; nested keys use _
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile == "" {
		return v, nil
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return v, nil
}

// findConfigFile returns the first existing default config file, or "".
func findConfigFile() string {
	for _, path := range []string{
		"promptlab.yaml",
		filepath.Join(DefaultDir(), "config.yaml"),
	} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	// Report fields by their config key.
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
}

// Validate rejects unknown tokenizers and log levels, negative delays and an
// empty database path.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SlogLevel maps Log.Level to a slog level. Unknown levels map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteDefault writes the default configuration to the specified path.
// An existing file is not overwritten unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# promptlab configuration
# Every key can be overridden with a PROMPTLAB_ environment variable,
# e.g. PROMPTLAB_DB_PATH=/tmp/lab.db or PROMPTLAB_EXECUTE_DELAY=0s

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
