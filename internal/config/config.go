// ABOUTME: Configuration loading and parsing for the mindlens server
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete mindlens configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Translator TranslatorConfig `yaml:"translator"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Retention  RetentionConfig  `yaml:"retention"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the external URL of the UI, used in absolute links.
	// If empty it is derived from http_addr.
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`

	// Default admin credentials provisioned when no admin account exists.
	// These are deliberately well-known, not secret; change the password
	// after first login.
	BootstrapAdminUsername string `yaml:"bootstrap_admin_username"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`

	SessionDuration    time.Duration `yaml:"-"`
	SessionDurationRaw string        `yaml:"session_duration"`

	TokenDuration    time.Duration `yaml:"-"`
	TokenDurationRaw string        `yaml:"token_duration"`
}

// TranslatorConfig holds the translation service client configuration
type TranslatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Target  string `yaml:"target"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// ClassifierConfig holds the text classification client configuration
type ClassifierConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Token   string `yaml:"token"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// RetentionConfig holds the default event retention window
type RetentionConfig struct {
	DefaultDays int `yaml:"default_days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied for fields left empty in the config file.
const (
	DefaultTarget        = "en"
	DefaultSessionTTL    = 7 * 24 * time.Hour
	DefaultTokenTTL      = 24 * time.Hour
	DefaultClientTimeout = 10 * time.Second
	DefaultRetentionDays = 90
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "mindlens-admin"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Retention.DefaultDays < 0 {
		return fmt.Errorf("retention.default_days must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Translator.Target == "" {
		c.Translator.Target = DefaultTarget
	}
	if c.Translator.Timeout == 0 {
		c.Translator.Timeout = DefaultClientTimeout
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = DefaultClientTimeout
	}
	if c.Auth.SessionDuration == 0 {
		c.Auth.SessionDuration = DefaultSessionTTL
	}
	if c.Auth.TokenDuration == 0 {
		c.Auth.TokenDuration = DefaultTokenTTL
	}
	if c.Auth.BootstrapAdminUsername == "" {
		c.Auth.BootstrapAdminUsername = DefaultAdminUsername
	}
	if c.Auth.BootstrapAdminPassword == "" {
		c.Auth.BootstrapAdminPassword = DefaultAdminPassword
	}
	if c.Retention.DefaultDays == 0 {
		c.Retention.DefaultDays = DefaultRetentionDays
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{cfg.Auth.SessionDurationRaw, &cfg.Auth.SessionDuration, "auth.session_duration"},
		{cfg.Auth.TokenDurationRaw, &cfg.Auth.TokenDuration, "auth.token_duration"},
		{cfg.Translator.TimeoutRaw, &cfg.Translator.Timeout, "translator.timeout"},
		{cfg.Classifier.TimeoutRaw, &cfg.Classifier.Timeout, "classifier.timeout"},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
