package cli

import "time"

// Default values for CLI flags and configurations.
const (
	// DefaultProjects is the main project only.
	DefaultProjects = "."
	// DefaultMode resolves direct dependencies to their lowest versions.
	DefaultMode = "deps"
	// EnvPrefix prefixes the environment variables that override flags' defaults.
	EnvPrefix = "DOWNGRADE"
	// DownloadTimeout bounds a resolver archive download.
	DownloadTimeout = 5 * time.Minute
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)

// Invocation keys shared by flags, environment and viper.
const (
	keySkip         = "skip"
	keyProjects     = "projects"
	keyMode         = "mode"
	keyJuliaVersion = "julia_version"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
)
