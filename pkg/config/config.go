package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the channel exporter
type Config struct {
	// Discord API access
	Discord DiscordConfig `yaml:"discord" json:"discord"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Scrape loop settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Export artifact settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DiscordConfig holds Discord-specific configuration
type DiscordConfig struct {
	Token          string        `yaml:"token" json:"token"`
	TokenType      string        `yaml:"token_type" json:"token_type"` // "Bot" or "Bearer"
	APIBase        string        `yaml:"api_base" json:"api_base"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// RateLimitConfig holds rate limiting and throttle-retry configuration
type RateLimitConfig struct {
	RequestsPerSecond int           `yaml:"requests_per_second" json:"requests_per_second"`
	Window            time.Duration `yaml:"window" json:"window"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
}

// ScrapeConfig holds pagination loop settings
type ScrapeConfig struct {
	PageLimit   int           `yaml:"page_limit" json:"page_limit"`
	PageDelay   time.Duration `yaml:"page_delay" json:"page_delay"`
	MaxMessages int           `yaml:"max_messages" json:"max_messages"`
}

// ExportConfig holds output artifact configuration
type ExportConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MaxPageLimit is the largest page size the messages endpoint accepts
const MaxPageLimit = 100

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			TokenType:      "Bot",
			APIBase:        "https://discord.com/api/v10",
			UserAgent:      "dcexport/1.0",
			RequestTimeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Window:            time.Second,
			MaxRetries:        3,
			RetryBaseDelay:    time.Second,
		},
		Scrape: ScrapeConfig{
			PageLimit:   MaxPageLimit,
			PageDelay:   100 * time.Millisecond,
			MaxMessages: 0, // unlimited
		},
		Export: ExportConfig{
			Directory: "./exports",
			BatchSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("DCEXPORT_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if tokenType := os.Getenv("DCEXPORT_TOKEN_TYPE"); tokenType != "" {
		c.Discord.TokenType = tokenType
	}
	if apiBase := os.Getenv("DCEXPORT_API_BASE"); apiBase != "" {
		c.Discord.APIBase = apiBase
	}
	if userAgent := os.Getenv("DCEXPORT_USER_AGENT"); userAgent != "" {
		c.Discord.UserAgent = userAgent
	}

	if rps := os.Getenv("DCEXPORT_REQUESTS_PER_SECOND"); rps != "" {
		var val int
		fmt.Sscanf(rps, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerSecond = val
		}
	}
	if retries := os.Getenv("DCEXPORT_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}

	if exportDir := os.Getenv("DCEXPORT_EXPORT_DIR"); exportDir != "" {
		c.Export.Directory = exportDir
	}

	if logLevel := os.Getenv("DCEXPORT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".dcexport.yaml",
		".dcexport.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "dcexport", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "dcexport", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".dcexport.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Discord.APIBase == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.Discord.TokenType != "Bot" && c.Discord.TokenType != "Bearer" {
		errs = append(errs, errors.New("token type must be Bot or Bearer"))
	}
	if c.Discord.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Scrape.PageLimit <= 0 || c.Scrape.PageLimit > MaxPageLimit {
		errs = append(errs, fmt.Errorf("page limit must be between 1 and %d", MaxPageLimit))
	}
	if c.Scrape.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	if c.Scrape.MaxMessages < 0 {
		errs = append(errs, errors.New("max messages cannot be negative"))
	}

	if c.Export.Directory == "" {
		errs = append(errs, errors.New("export directory is required"))
	}
	if c.Export.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Discord.Token = token
	}
	if tokenType, ok := flags["token-type"].(string); ok && tokenType != "" {
		c.Discord.TokenType = tokenType
	}
	if exportDir, ok := flags["export-dir"].(string); ok && exportDir != "" {
		c.Export.Directory = exportDir
	}
	if rps, ok := flags["rate-limit"].(int); ok && rps > 0 {
		c.RateLimit.RequestsPerSecond = rps
	}
	if retries, ok := flags["max-retries"].(int); ok && retries > 0 {
		c.RateLimit.MaxRetries = retries
	}
	if delay, ok := flags["page-delay"].(time.Duration); ok && delay >= 0 {
		c.Scrape.PageDelay = delay
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dcexport.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
