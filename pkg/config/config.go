// Package config loads and watches the .commitcheck.yaml configuration.
package config

import (
	"fmt"

	"github.com/ssport/commitcheck/pkg/rules"
)

// DefaultFileName is looked up in the repository root when no --config flag
// is given.
const DefaultFileName = ".commitcheck.yaml"

// Config is the root configuration document.
type Config struct {
	Rules    RulesConfig  `yaml:"rules"`
	Policies []string     `yaml:"policies"`
	Server   ServerConfig `yaml:"server"`
	Log      LogConfig    `yaml:"log"`
}

// RulesConfig holds settings for the builtin rules.
type RulesConfig struct {
	// Types overrides the allowed Conventional Commits types.
	Types []string `yaml:"types"`
	// Scopes restricts header scopes when non-empty.
	Scopes []string `yaml:"scopes"`
	// ScopeRequired makes a missing scope an error.
	ScopeRequired bool `yaml:"scope_required"`
	// TicketPrefixes restricts which projects commits may reference.
	TicketPrefixes []string `yaml:"ticket_prefixes"`
	// HeaderMaxLength defaults to 72.
	HeaderMaxLength int `yaml:"header_max_length"`
	// BodyMaxLineLength defaults to 100.
	BodyMaxLineLength int `yaml:"body_max_line_length"`
	// Disabled lists rule names to skip entirely.
	Disabled []string `yaml:"disabled"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Listen       string `yaml:"listen"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	// MaxBatch bounds how many messages one /v1/lint request may carry.
	MaxBatch int `yaml:"max_batch"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Rules.HeaderMaxLength == 0 {
		c.Rules.HeaderMaxLength = rules.DefaultHeaderMaxLength
	}
	if c.Rules.BodyMaxLineLength == 0 {
		c.Rules.BodyMaxLineLength = rules.DefaultBodyMaxLineLength
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8071"
	}
	if c.Server.MaxBatch == 0 {
		c.Server.MaxBatch = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var knownRules = []string{
	"footer-ticket", "ticket-prefix", "type-enum", "scope-enum",
	"scope-required", "subject-empty", "subject-case",
	"subject-full-stop", "header-max-length", "body-max-line-length",
	"rego-policy",
}

// Validate rejects configurations the linter cannot act on.
func (c *Config) Validate() error {
	for _, name := range c.Rules.Disabled {
		if !knownRule(name) {
			return fmt.Errorf("unknown rule in rules.disabled: %q", name)
		}
	}
	if c.Rules.HeaderMaxLength < 0 || c.Rules.BodyMaxLineLength < 0 {
		return fmt.Errorf("rule length limits must be positive")
	}
	if c.Server.MaxBatch < 0 {
		return fmt.Errorf("server.max_batch must be positive")
	}
	return nil
}

// DisabledRule reports whether a rule is switched off.
func (c *Config) DisabledRule(name string) bool {
	for _, disabled := range c.Rules.Disabled {
		if disabled == name {
			return true
		}
	}
	return false
}

func knownRule(name string) bool {
	for _, known := range knownRules {
		if name == known {
			return true
		}
	}
	return false
}
