package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string   `yaml:"port"`
	DatabaseURL        string   `yaml:"database_url"`
	SlackBotToken      string   `yaml:"-"`
	SlackAppToken      string   `yaml:"-"`
	SlackSigningSecret string   `yaml:"-"`
	SlackTeamID        string   `yaml:"slack_team_id"`
	IgnoreChannels     []string `yaml:"ignore_channels"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	Environment        string   `yaml:"environment"`
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE,
// then environment variables (including a local .env file), which take precedence.
// Secrets are only read from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:        "8080",
		DatabaseURL: "postgres://localhost/chatsync?sslmode=disable",
		LogLevel:    "INFO",
		LogFormat:   "text",
		Environment: "development",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.SlackAppToken = os.Getenv("SLACK_APP_TOKEN")
	cfg.SlackSigningSecret = os.Getenv("SLACK_SIGNING_SECRET")
	cfg.SlackTeamID = getEnvOrDefault("SLACK_TEAM_ID", cfg.SlackTeamID)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Environment = getEnvOrDefault("ENVIRONMENT", cfg.Environment)

	if channels := os.Getenv("IGNORE_CHANNELS"); channels != "" {
		cfg.IgnoreChannels = splitList(channels)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var problems []string

	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}

	if c.SlackBotToken == "" {
		problems = append(problems, "SLACK_BOT_TOKEN is required")
	}

	if c.SlackAppToken == "" && c.SlackSigningSecret == "" {
		problems = append(problems, "one of SLACK_APP_TOKEN or SLACK_SIGNING_SECRET is required")
	}

	if c.SlackBotToken != "" && !strings.HasPrefix(c.SlackBotToken, "xoxb-") {
		problems = append(problems, "SLACK_BOT_TOKEN must start with 'xoxb-'")
	}

	if c.SlackAppToken != "" && !strings.HasPrefix(c.SlackAppToken, "xapp-") {
		problems = append(problems, "SLACK_APP_TOKEN must start with 'xapp-'")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		problems = append(problems, "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		problems = append(problems, "LOG_FORMAT must be one of: text, json")
	}

	if len(problems) > 0 {
		return errors.New(problems[0])
	}

	return nil
}

// SocketMode reports whether events arrive over Socket Mode rather than HTTP
func (c *Config) SocketMode() bool {
	return c.SlackAppToken != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
