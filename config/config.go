// Package config builds a ServerConfig either through functional options or
// by loading a YAML file, mirroring the functional-options constructor style
// used elsewhere in this module's ancestry for building a configured
// top-level object from a variadic option list.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"goa.design/mcpcore/provider"
)

// Icon describes a client-facing icon entry for a server.
type Icon struct {
	Src      string `yaml:"src"`
	MimeType string `yaml:"mime_type,omitempty"`
	Sizes    string `yaml:"sizes,omitempty"`
}

// ServerConfig holds the environment-level settings a server needs before
// any tool, resource, or prompt is registered.
type ServerConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Instructions string `yaml:"instructions,omitempty"`
	Website      string `yaml:"website,omitempty"`
	Icons        []Icon `yaml:"icons,omitempty"`

	// DuplicatePolicy is the default applied to every LocalProvider this
	// config builds; individual providers can still be constructed with a
	// different policy directly.
	DuplicatePolicy provider.DuplicatePolicy `yaml:"duplicate_policy"`
	// MaskErrorDetails controls whether tool-error causes are redacted
	// from protocol responses (validation errors are never masked).
	MaskErrorDetails bool `yaml:"mask_error_details"`
	// TasksEnabled controls whether tools declared with task config may
	// run in the background instead of synchronously.
	TasksEnabled bool `yaml:"tasks_enabled"`
	// IncludeFastMCPMeta controls whether a synthesized `_fastmcp` key
	// (tags, version) is added to each component's meta.
	IncludeFastMCPMeta bool `yaml:"include_fastmcp_meta"`
}

// Option configures a ServerConfig under construction.
type Option func(*ServerConfig)

// WithName sets the server name.
func WithName(name string) Option { return func(c *ServerConfig) { c.Name = name } }

// WithVersion sets the server version string.
func WithVersion(version string) Option { return func(c *ServerConfig) { c.Version = version } }

// WithInstructions sets the human-readable instructions shown to clients.
func WithInstructions(instructions string) Option {
	return func(c *ServerConfig) { c.Instructions = instructions }
}

// WithWebsite sets the server's website URL.
func WithWebsite(website string) Option { return func(c *ServerConfig) { c.Website = website } }

// WithIcons sets the server's icon list.
func WithIcons(icons ...Icon) Option { return func(c *ServerConfig) { c.Icons = icons } }

// WithDuplicatePolicy sets the default duplicate-registration policy.
func WithDuplicatePolicy(policy provider.DuplicatePolicy) Option {
	return func(c *ServerConfig) { c.DuplicatePolicy = policy }
}

// WithMaskErrorDetails toggles tool-error redaction.
func WithMaskErrorDetails(mask bool) Option {
	return func(c *ServerConfig) { c.MaskErrorDetails = mask }
}

// WithTasksEnabled toggles background task execution.
func WithTasksEnabled(enabled bool) Option {
	return func(c *ServerConfig) { c.TasksEnabled = enabled }
}

// WithIncludeFastMCPMeta toggles the synthesized `_fastmcp` meta key.
func WithIncludeFastMCPMeta(include bool) Option {
	return func(c *ServerConfig) { c.IncludeFastMCPMeta = include }
}

// defaults returns a ServerConfig with this module's documented defaults
// before any option is applied.
func defaults() ServerConfig {
	return ServerConfig{
		Version:            "0.0.0",
		DuplicatePolicy:    provider.PolicyWarn,
		MaskErrorDetails:   false,
		TasksEnabled:       true,
		IncludeFastMCPMeta: true,
	}
}

// New builds a ServerConfig from defaults plus the given options.
func New(opts ...Option) *ServerConfig {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// Load parses YAML config data on top of this module's defaults.
func Load(data []byte) (*ServerConfig, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("config: name is required")
	}
	return &cfg, nil
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}
