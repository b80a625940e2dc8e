// Package config provides configuration management for downgrade.
// It handles loading, validating, and saving the optional YAML tool
// configuration: log and output settings, the julia command line, where the
// resolver comes from, and hook scripts. A missing file yields the defaults.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/fsutil"
	"github.com/glorpus-work/downgrade/pkg/hook"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	Julia    JuliaConfig    `yaml:"julia"`
	Resolver ResolverConfig `yaml:"resolver"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

// Settings represents general application settings.
type Settings struct {
	OutputFormat string `yaml:"output_format"` // text, json
	ColorOutput  bool   `yaml:"color_output"`
	LogLevel     string `yaml:"log_level"` // debug, info, warn, error
}

// JuliaConfig describes how the julia runtime is invoked.
type JuliaConfig struct {
	// Command is a shell-quoted command line, e.g. "julia +1.10 --startup-file=no".
	Command string `yaml:"command"`
	// Version is the default target runtime version; "1" asks the runtime.
	Version string `yaml:"version"`
}

// ResolverConfig selects where Resolver.jl is obtained from.
type ResolverConfig struct {
	Repository string `yaml:"repository"`
	Revision   string `yaml:"revision"`
	// Archive is a local path or URL of a release archive. It takes
	// precedence over the git repository.
	Archive  string `yaml:"archive,omitempty"`
	Checksum string `yaml:"checksum,omitempty"` // hex sha256 of a downloaded archive
	// Dir is a pre-installed checkout; installation is skipped.
	Dir string `yaml:"dir,omitempty"`
}

// HooksConfig holds inline tengo scripts per hook type and an optional
// directory of <hook-type>.tengo files.
type HooksConfig struct {
	Dir         string `yaml:"dir,omitempty"`
	PreResolve  string `yaml:"pre-resolve,omitempty"`
	PostResolve string `yaml:"post-resolve,omitempty"`
	PostVerify  string `yaml:"post-verify,omitempty"`
}

// Scripts returns the inline scripts keyed by hook type.
func (h HooksConfig) Scripts() map[hook.HookType]string {
	return map[hook.HookType]string{
		hook.PreResolve:  h.PreResolve,
		hook.PostResolve: h.PostResolve,
		hook.PostVerify:  h.PostVerify,
	}
}

// Default configuration values.
const (
	DefaultOutputFormat = "text"
	DefaultLogLevel     = "info"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	checksumLength = 32
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			OutputFormat: DefaultOutputFormat,
			ColorOutput:  true,
			LogLevel:     DefaultLogLevel,
		},
		Julia: JuliaConfig{
			Command: resolver.DefaultJuliaCommand,
			Version: resolver.CurrentJuliaVersion,
		},
		Resolver: ResolverConfig{
			Repository: resolver.DefaultRepository,
			Revision:   resolver.DefaultRevision,
		},
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath) //nolint:gosec // path chosen by the user
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader. Keys absent
// from the document keep their default values.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(absPath, data); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	if err := validateJulia(c.Julia); err != nil {
		return err
	}
	return validateResolver(c.Resolver)
}

func validateSettings(s Settings) error {
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return errors.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

func validateJulia(j JuliaConfig) error {
	if _, err := resolver.ParseCommand(j.Command); err != nil {
		return err
	}
	if j.Version != "" && j.Version != resolver.CurrentJuliaVersion {
		if _, err := version.NewVersion(j.Version); err != nil {
			return fmt.Errorf("%w: julia.version %q", errors.ErrConfigValidation, j.Version)
		}
	}
	return nil
}

func validateResolver(r ResolverConfig) error {
	if r.Checksum != "" {
		sum, err := hex.DecodeString(r.Checksum)
		if err != nil || len(sum) != checksumLength {
			return fmt.Errorf("%w: resolver.checksum must be a hex sha256 digest", errors.ErrConfigValidation)
		}
		if r.Archive == "" {
			return fmt.Errorf("%w: resolver.checksum requires resolver.archive", errors.ErrConfigValidation)
		}
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "downgrade", "config.yaml"), nil
}

// applyDefaults fills in values that were explicitly set to empty.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if strings.TrimSpace(c.Julia.Command) == "" {
		c.Julia.Command = defaults.Julia.Command
	}
	if c.Julia.Version == "" {
		c.Julia.Version = defaults.Julia.Version
	}
	if c.Resolver.Repository == "" {
		c.Resolver.Repository = defaults.Resolver.Repository
	}
	if c.Resolver.Revision == "" {
		c.Resolver.Revision = defaults.Resolver.Revision
	}
}
