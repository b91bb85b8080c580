package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// InputConfig locates the series to analyze
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// AnalysisConfig holds extraction parameters
type AnalysisConfig struct {
	// Epsilon relaxes the recovery comparison (value >= peak - epsilon).
	Epsilon float64 `mapstructure:"epsilon"`
	// Threshold filters exported/served events by minimum magnitude.
	Threshold float64 `mapstructure:"threshold"`
}

// WatchConfig holds watch-mode behavior configuration
type WatchConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	AlertThreshold float64       `mapstructure:"alert_threshold"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds run persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds the results API configuration
type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("DRAWDOWN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.epsilon", 0.0)
	v.SetDefault("analysis.threshold", 0.0)

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.interval", "15m")
	v.SetDefault("watch.alert_threshold", 0.0)
	v.SetDefault("watch.cooldown", "24h")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/drawdown.db")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.listen_addr", ":8080")

	v.SetDefault("logging.level", "info")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if c.Analysis.Epsilon < 0 {
		return fmt.Errorf("analysis.epsilon must not be negative")
	}
	if c.Analysis.Threshold < 0 {
		return fmt.Errorf("analysis.threshold must not be negative")
	}

	if c.Watch.Enabled {
		if c.Watch.Interval < time.Second {
			return fmt.Errorf("watch.interval must be at least 1 second")
		}
		if c.Watch.AlertThreshold < 0 {
			return fmt.Errorf("watch.alert_threshold must not be negative")
		}
		if c.Watch.Cooldown < 0 {
			return fmt.Errorf("watch.cooldown must not be negative")
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	if c.Server.Enabled && c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required when the server is enabled")
	}

	return nil
}
