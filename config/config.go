// Package config loads runtime settings from environment variables and an
// optional config file via viper. Every key is overridable through the
// KAIGI_* environment, so the CLI works without any file present.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Provider credentials. A key may be empty when the matching provider is
	// never used by the meeting being run.
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	GoogleAPIKey    string `mapstructure:"google_api_key"`

	// DBPath selects the SQLite database file. Empty selects in-memory stores.
	DBPath string `mapstructure:"db_path"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Model call resilience.
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryInitialDelay time.Duration `mapstructure:"retry_initial_delay"`

	// Token ceilings per step kind.
	SpeakMaxTokens   int64 `mapstructure:"speak_max_tokens"`
	SummaryMaxTokens int64 `mapstructure:"summary_max_tokens"`
}

// Load resolves configuration from the given viper instance, applying
// defaults and KAIGI_* environment bindings. A missing config file is not an
// error; unreadable or malformed files are.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// Every key gets a default so AutomaticEnv-only values survive Unmarshal.
	v.SetDefault("openai_api_key", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("google_api_key", "")
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_initial_delay", time.Second)
	v.SetDefault("speak_max_tokens", int64(4096))
	v.SetDefault("summary_max_tokens", int64(8192))

	v.SetEnvPrefix("KAIGI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKey returns the credential for a provider name, empty when unset.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "google":
		return c.GoogleAPIKey
	default:
		return ""
	}
}
