// Package config loads bot configuration from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process configuration
type Config struct {
	// Discord
	DiscordToken string `yaml:"discord_token"`
	GuildID      string `yaml:"guild_id"`

	// Commentary
	OpenAIToken string  `yaml:"openai_api_key"`
	OpenAIModel string  `yaml:"openai_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// Storage
	DatabaseDriver string        `yaml:"database_driver"`
	DatabaseDSN    string        `yaml:"database_dsn"`
	SessionTTL     time.Duration `yaml:"session_ttl"`

	// HTTP
	HTTPAddr string `yaml:"http_addr"`

	// Scheduled leaderboard post
	LeaderboardChannelID string `yaml:"leaderboard_channel_id"`
	LeaderboardCron      string `yaml:"leaderboard_cron"`

	// Logging
	LogLevel string `yaml:"log_level"`
	Env      string `yaml:"env"`
}

// DefaultSQLitePath is the database file used when sqlite is selected without a DSN
const DefaultSQLitePath = "scrimbot.db"

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		OpenAIModel:     "gpt-4o-mini",
		MaxTokens:       150,
		Temperature:     0.7,
		DatabaseDriver:  "sqlite",
		SessionTTL:      3 * time.Hour,
		HTTPAddr:        ":8080",
		LeaderboardCron: "0 0 18 * * 0",
		LogLevel:        "info",
		Env:             "production",
	}
}

// Load reads .env into the environment, then builds the configuration.
// A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if cfg.DatabaseDriver == "sqlite" && cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = DefaultSQLitePath
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DiscordToken = getEnv("DISCORD_TOKEN", c.DiscordToken)
	c.GuildID = getEnv("GUILD_ID", c.GuildID)

	c.OpenAIToken = getEnv("OPENAI_API_KEY", c.OpenAIToken)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.MaxTokens = getEnvInt("MAX_TOKENS", c.MaxTokens)
	c.Temperature = getEnvFloat("TEMPERATURE", c.Temperature)

	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseDSN = getEnv("DATABASE_DSN", c.DatabaseDSN)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)

	c.LeaderboardChannelID = getEnv("LEADERBOARD_CHANNEL_ID", c.LeaderboardChannelID)
	c.LeaderboardCron = getEnv("LEADERBOARD_CRON", c.LeaderboardCron)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Env = getEnv("ENV", c.Env)
}

// Validate reports the first configuration problem found
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for postgres")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2")
	}
	return nil
}

// Development reports whether the process runs with development defaults
func (c *Config) Development() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
