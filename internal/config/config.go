// Package config loads the portfolio server configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides (PF_PORT -> port).
const EnvPrefix = "PF_"

// Config holds server configuration.
type Config struct {
	Port    int    `yaml:"port" koanf:"port"`
	DBPath  string `yaml:"db_path,omitempty" koanf:"db_path"`
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	DevMode bool   `yaml:"dev_mode" koanf:"dev_mode"`

	// OwnerEmails is a comma-separated list of site owners who may delete any comment.
	OwnerEmails string `yaml:"owner_emails,omitempty" koanf:"owner_emails"`
	// CORSOrigins is a comma-separated list of allowed origins; empty means same-origin only.
	CORSOrigins string `yaml:"cors_origins,omitempty" koanf:"cors_origins"`

	DefaultCommentLimit int `yaml:"default_comment_limit" koanf:"default_comment_limit"`
	MaxCommentLimit     int `yaml:"max_comment_limit" koanf:"max_comment_limit"`

	SMTPHost string `yaml:"smtp_host,omitempty" koanf:"smtp_host"`
	SMTPPort string `yaml:"smtp_port,omitempty" koanf:"smtp_port"`
	SMTPUser string `yaml:"smtp_user,omitempty" koanf:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass,omitempty" koanf:"smtp_pass"`
	SMTPFrom string `yaml:"smtp_from,omitempty" koanf:"smtp_from"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Port:                8080,
		BaseURL:             "http://localhost:8080",
		DefaultCommentLimit: 5,
		MaxCommentLimit:     100,
		SMTPPort:            "587",
	}
}

// Load reads configuration from an optional .env file, the given YAML file,
// then overlays environment variable overrides (PF_*).
// A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}

	if c.DefaultCommentLimit <= 0 {
		return fmt.Errorf("default_comment_limit must be positive")
	}
	if c.MaxCommentLimit < c.DefaultCommentLimit {
		return fmt.Errorf("max_comment_limit (%d) must be at least default_comment_limit (%d)",
			c.MaxCommentLimit, c.DefaultCommentLimit)
	}

	if !c.DevMode && c.SMTPHost == "" {
		return fmt.Errorf("smtp_host is required outside dev mode")
	}

	return nil
}

// Owners returns the lower-cased owner emails.
func (c *Config) Owners() []string {
	return splitList(strings.ToLower(c.OwnerEmails))
}

// AllowedOrigins returns the configured CORS origins.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
