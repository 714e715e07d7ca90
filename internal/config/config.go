// Package config loads the process configuration. The Config value is
// constructed once at startup, treated as immutable, and passed
// explicitly into each component constructor.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultLoginTTL bounds how long the browser login cookie stays valid.
const DefaultLoginTTL = 5 * time.Minute

// Duration decodes YAML values like "5m" or "1h30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the immutable process configuration.
type Config struct {
	// EntityID is the IdP's own entity ID.
	EntityID string `yaml:"entity_id"`

	// BaseURL is the externally visible base URL.
	BaseURL string `yaml:"base_url"`

	// SSOServiceURL is the single sign-on endpoint; defaults to
	// BaseURL + "/sso".
	SSOServiceURL string `yaml:"sso_service_url"`

	// ListenAddr is the HTTP listen address, e.g. ":5000".
	ListenAddr string `yaml:"listen_addr"`

	// SigningCertPath and SigningKeyPath locate the PEM key material.
	SigningCertPath string `yaml:"signing_cert_path"`
	SigningKeyPath  string `yaml:"signing_key_path"`

	// RegistryPath is the trusted-SP YAML registry file.
	RegistryPath string `yaml:"registry_path"`

	// UsersPath is the user store YAML file.
	UsersPath string `yaml:"users_path"`

	// LoginTTL bounds the browser login cookie; zero selects the
	// default.
	LoginTTL Duration `yaml:"login_ttl"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.applyDefaultsAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaultsAndValidate() error {
	required := []struct {
		name, value string
	}{
		{"entity_id", c.EntityID},
		{"base_url", c.BaseURL},
		{"signing_cert_path", c.SigningCertPath},
		{"signing_key_path", c.SigningKeyPath},
	}
	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missing, ", "))
	}

	if c.SSOServiceURL == "" {
		c.SSOServiceURL = strings.TrimRight(c.BaseURL, "/") + "/sso"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
	if c.LoginTTL == 0 {
		c.LoginTTL = Duration(DefaultLoginTTL)
	}
	return nil
}
