// Package config loads runtime settings from the environment and an optional
// influencer.yaml file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	envPrefix = "INFLUENCER"
)

type Config struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	ParamPrefix    string        `mapstructure:"param_prefix"`
	BaseURL        string        `mapstructure:"base_url"`
	GeneratorModel string        `mapstructure:"generator_model"`
	ChatModel      string        `mapstructure:"chat_model"`
	Temperature    float64       `mapstructure:"temperature"`
	PostsDir       string        `mapstructure:"posts_dir"`
	PostPattern    string        `mapstructure:"post_pattern"`
	ArchiveTable   string        `mapstructure:"archive_table"`
	HistorySize    int           `mapstructure:"history_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("posts_dir", "posts")
	v.SetDefault("post_pattern", "*.json")
	v.SetDefault("history_size", 5)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("log_level", "info")
}

// Load reads configuration. Environment variables (INFLUENCER_<KEY>) take
// precedence over the config file, which takes precedence over defaults.
// GOOGLE_API_KEY is accepted in place of INFLUENCER_API_KEY. An empty
// configFile searches for influencer.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("influencer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", envPrefix+"_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind api_key: %w", err)
	}
	// keys without defaults are invisible to Unmarshal unless bound
	for _, key := range []string{"param_prefix", "base_url", "generator_model", "chat_model", "archive_table"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and fills provider-specific model
// defaults.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderGemini:
		if c.GeneratorModel == "" {
			c.GeneratorModel = "gemini-1.5-flash"
		}
		if c.ChatModel == "" {
			c.ChatModel = "gemini-1.5-pro"
		}
	case ProviderOpenAI:
		if c.GeneratorModel == "" {
			c.GeneratorModel = "gpt-4o-mini"
		}
		if c.ChatModel == "" {
			c.ChatModel = c.GeneratorModel
		}
	default:
		return fmt.Errorf("config: provider %q is not supported (must be gemini or openai)", c.Provider)
	}

	c.ParamPrefix = strings.TrimRight(strings.TrimSpace(c.ParamPrefix), "/")
	if strings.TrimSpace(c.APIKey) == "" && c.ParamPrefix == "" {
		return errors.New("config: api_key is required (set INFLUENCER_API_KEY or GOOGLE_API_KEY, or param_prefix to read it from Parameter Store)")
	}
	if strings.TrimSpace(c.PostsDir) == "" {
		return errors.New("config: posts_dir must not be empty")
	}
	if c.PostPattern == "" {
		c.PostPattern = "*.json"
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("config: history_size must be at least 1, got %d", c.HistorySize)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: request_timeout must not be negative")
	}
	return nil
}

// KeyParameter is the Parameter Store name holding the API key.
func (c *Config) KeyParameter() string {
	return c.ParamPrefix + "/api-key"
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
