// Package auth provides authentication via magic link email, passkeys,
// sessions and CLI API keys.
package auth

import (
	"strings"

	"github.com/evcraddock/portfolio/internal/config"
)

// Config holds authentication configuration.
type Config struct {
	Owners   []string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	DevMode  bool
	BaseURL  string // e.g. http://localhost:8080
}

// ConfigFrom extracts the auth settings from the server configuration.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Owners:   c.Owners(),
		SMTPHost: c.SMTPHost,
		SMTPPort: c.SMTPPort,
		SMTPUser: c.SMTPUser,
		SMTPPass: c.SMTPPass,
		SMTPFrom: c.SMTPFrom,
		DevMode:  c.DevMode,
		BaseURL:  strings.TrimRight(c.BaseURL, "/"),
	}
}

// IsOwner reports whether email belongs to a site owner.
func (c Config) IsOwner(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, o := range c.Owners {
		if o == email {
			return true
		}
	}
	return false
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}
