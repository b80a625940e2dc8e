package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/config"
	"github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the tool configuration and applies the global flags on
// top of it.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.ColorOutput = false
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// invocation holds the per-run inputs after layering.
type invocation struct {
	Skip         []string
	Projects     []string
	Mode         string
	JuliaVersion string
}

// newInvocationViper layers the run inputs: flag > DOWNGRADE_* environment
// > config file > built-in defaults.
func newInvocationViper(cmd *cobra.Command, cfg *config.Config) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keySkip, "")
	v.SetDefault(keyProjects, DefaultProjects)
	v.SetDefault(keyMode, DefaultMode)
	v.SetDefault(keyJuliaVersion, cfg.Julia.Version)

	flags := map[string]string{
		keySkip:         "skip",
		keyProjects:     "projects",
		keyMode:         "mode",
		keyJuliaVersion: "julia-version",
	}
	for key, name := range flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return v, nil
}

func readInvocation(cmd *cobra.Command, cfg *config.Config) (invocation, error) {
	v, err := newInvocationViper(cmd, cfg)
	if err != nil {
		return invocation{}, err
	}
	return invocation{
		Skip:         splitList(v.GetString(keySkip)),
		Projects:     splitList(v.GetString(keyProjects)),
		Mode:         strings.TrimSpace(v.GetString(keyMode)),
		JuliaVersion: strings.TrimSpace(v.GetString(keyJuliaVersion)),
	}, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func addSkipFlag(cmd *cobra.Command) {
	cmd.Flags().String("skip", "", "Comma-separated packages whose bounds are not checked")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
