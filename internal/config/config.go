package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from config.yaml with
// FINGLOW_* environment variable overrides.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	AI         AIConfig         `mapstructure:"ai"`
	AbacatePay AbacatePayConfig `mapstructure:"abacatepay"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// DSN is the Postgres connection string. When empty the server falls
	// back to the in-memory store (local development only).
	DSN string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// AIConfig selects and configures the analysis model provider.
type AIConfig struct {
	// Provider is "gemini" (default) or "openai" for any OpenAI-compatible API.
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

type AbacatePayConfig struct {
	APIKey        string `mapstructure:"api_key"`
	APIURL        string `mapstructure:"api_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// Load reads config.yaml from the working directory and applies environment
// overrides (e.g. FINGLOW_AI_API_KEY).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("FINGLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound
	// explicitly, so bind every secret-bearing key by hand.
	for _, key := range []string{
		"database.dsn",
		"jwt.secret",
		"ai.api_key",
		"ai.base_url",
		"abacatepay.api_key",
		"abacatepay.webhook_secret",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config.Load: binding %s: %w", key, err)
		}
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when everything comes from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config.Load: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.timeout", time.Minute)
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.initial_delay", 2*time.Second)
	viper.SetDefault("abacatepay.api_url", "https://api.abacatepay.com/v1")
}
