package config

import "time"

// Config holds promptlab configuration.
// Stored at: ./promptlab.yaml or ~/.promptlab/config.yaml
type Config struct {
	// DBPath is the SQLite database file (default: ~/.promptlab/promptlab.db).
	DBPath  string     `mapstructure:"db_path" json:"db_path" yaml:"db_path" validate:"required"`
	Execute ExecuteCfg `mapstructure:"execute" json:"execute" yaml:"execute"`
	Auth    AuthCfg    `mapstructure:"auth" json:"auth" yaml:"auth"`
	Log     LogCfg     `mapstructure:"log" json:"log" yaml:"log"`
}

// ExecuteCfg configures the simulated model.
type ExecuteCfg struct {
	// Delay is the simulated latency before a run returns.
	Delay     time.Duration `mapstructure:"delay" json:"delay" yaml:"delay" validate:"gte=0"`
	Tokenizer string        `mapstructure:"tokenizer" json:"tokenizer" yaml:"tokenizer" validate:"oneof=tiktoken random"`
	// Seed feeds the simulated metadata. 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed" json:"seed" yaml:"seed"`
}

// AuthCfg configures the mock account service.
type AuthCfg struct {
	// Delay is the simulated latency of sign-in and sign-up.
	Delay time.Duration `mapstructure:"delay" json:"delay" yaml:"delay" validate:"gte=0"`
	// Required gates playground commands on a signed-in session.
	Required bool `mapstructure:"required" json:"required" yaml:"required"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Tokenizer names.
const (
	TokenizerTiktoken = "tiktoken"
	TokenizerRandom   = "random"
)
