package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the optional bootstrap file.
// Things that are awkward as env vars: seed tokens, default preferences, starter collections.
type YAMLConfig struct {
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// BootstrapConfig lists invite tokens to create on startup if they don't exist yet.
type BootstrapConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig is a pre-shared invite token.
type TokenConfig struct {
	Token string `yaml:"token"`
	Role  string `yaml:"role"` // admin, tester, user
}

// DefaultsConfig defines defaults applied to newly registered users.
type DefaultsConfig struct {
	Theme       string             `yaml:"theme"`
	Locale      string             `yaml:"locale"`
	Sort        string             `yaml:"sort"`
	Collections []CollectionConfig `yaml:"collections"` // Created for every new user
}

// CollectionConfig is a starter collection.
type CollectionConfig struct {
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
	Color string `yaml:"color"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFrom(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFrom loads the YAML configuration from path.
func LoadYAMLConfigFrom(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Defaults.Theme == "" {
		cfg.Defaults.Theme = "system"
	}
	if cfg.Defaults.Sort == "" {
		cfg.Defaults.Sort = "newest"
	}
	for i := range cfg.Bootstrap.Tokens {
		if cfg.Bootstrap.Tokens[i].Role == "" {
			cfg.Bootstrap.Tokens[i].Role = "user"
		}
	}

	return &cfg, nil
}

// StarterCollections returns the configured starter collections, or nil.
func (c *YAMLConfig) StarterCollections() []CollectionConfig {
	if c == nil {
		return nil
	}
	return c.Defaults.Collections
}

// BootstrapTokens returns the configured bootstrap tokens, or nil.
func (c *YAMLConfig) BootstrapTokens() []TokenConfig {
	if c == nil {
		return nil
	}
	return c.Bootstrap.Tokens
}

// DefaultLocale returns the configured default locale, or fallback.
func (c *YAMLConfig) DefaultLocale(fallback string) string {
	if c == nil || strings.TrimSpace(c.Defaults.Locale) == "" {
		return fallback
	}
	return c.Defaults.Locale
}
