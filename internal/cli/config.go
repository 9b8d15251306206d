package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is used when neither the config file nor PF_SERVER_URL names a server.
	DefaultServerURL = "http://localhost:8080"

	envPrefix     = "PF_"
	envConfigPath = "PF_CLI_CONFIG"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty" koanf:"server_url"`
	APIKey    string `yaml:"api_key,omitempty" koanf:"api_key"`
}

// configPath returns PF_CLI_CONFIG or ~/.config/pf/config.yaml.
func configPath() (string, error) {
	if p := os.Getenv(envConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pf", "config.yaml"), nil
}

// loadConfig reads the config file alone, without environment overrides.
// It is what logout and login rewrite. A missing file yields a zero config.
func loadConfig() (CLIConfig, error) {
	k := koanf.New(".")
	if err := loadFile(k); err != nil {
		return CLIConfig{}, err
	}
	return unmarshal(k)
}

// resolveConfig overlays non-empty PF_SERVER_URL and PF_API_KEY on the file.
func resolveConfig() (CLIConfig, error) {
	k := koanf.New(".")
	if err := loadFile(k); err != nil {
		return CLIConfig{}, err
	}

	overrides := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if value == "" || (name != "server_url" && name != "api_key") {
			return "", nil
		}
		return name, value
	})
	if err := k.Load(overrides, nil); err != nil {
		return CLIConfig{}, fmt.Errorf("loading env overrides: %w", err)
	}

	return unmarshal(k)
}

func loadFile(k *koanf.Koanf) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (CLIConfig, error) {
	var cfg CLIConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// saveConfig writes the CLI config with owner-only permissions, since it
// holds an API key.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// getServerURL returns the server URL from env, config, or the default.
func getServerURL() string {
	cfg, err := resolveConfig()
	if err != nil || cfg.ServerURL == "" {
		return DefaultServerURL
	}
	return strings.TrimRight(cfg.ServerURL, "/")
}

// getAPIKey returns the API key from env or config.
func getAPIKey() string {
	cfg, err := resolveConfig()
	if err != nil {
		return ""
	}
	return cfg.APIKey
}
