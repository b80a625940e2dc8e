// Package errors defines the sentinel errors shared by the downgrade packages
// and small helpers for attaching context to them.
package errors

import (
	"fmt"
	"strings"
)

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath     = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath   = fmt.Errorf("invalid config file path")
	ErrConfigParse         = fmt.Errorf("failed to parse config")
	ErrConfigValidation    = fmt.Errorf("invalid configuration")
	ErrConfigEncode        = fmt.Errorf("failed to encode config")
	ErrConfigDirectory     = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate    = fmt.Errorf("failed to create config file")
	ErrConfigFileExists    = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrInvalidLogLevel     = fmt.Errorf("invalid log level")
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")

	// Invocation errors.
	ErrInvalidMode         = fmt.Errorf("invalid mode")
	ErrInvalidJuliaVersion = fmt.Errorf("invalid julia version")
	ErrNoProjects          = fmt.Errorf("no project directories given")

	// Manifest errors.
	ErrProjectNotFound  = fmt.Errorf("project file not found")
	ErrManifestParse    = fmt.Errorf("failed to parse manifest")
	ErrManifestWrite    = fmt.Errorf("failed to write manifest")
	ErrMissingField     = fmt.Errorf("missing required field")
	ErrLockfileNotFound = fmt.Errorf("lock file not found")
	ErrRestoreMismatch  = fmt.Errorf("restored manifest does not match original content")

	// Resolution errors.
	ErrResolution      = fmt.Errorf("resolution failed")
	ErrResolverInstall = fmt.Errorf("failed to install resolver")
	ErrDownloadFailed  = fmt.Errorf("download failed")
	ErrChecksum        = fmt.Errorf("checksum mismatch")

	// Verification errors.
	ErrVerification = fmt.Errorf("lower bounds not realized by resolution")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidModeWithDetails reports an unknown mode together with the accepted values.
func ErrInvalidModeWithDetails(mode string, valid []string) error {
	return fmt.Errorf("%w: '%s', must be one of: %s", ErrInvalidMode, mode, strings.Join(valid, ", "))
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}

// ErrMissingFieldWithName names the field that a manifest lacks.
func ErrMissingFieldWithName(path, field string) error {
	return fmt.Errorf("%s: %w: %s", path, ErrMissingField, field)
}

// ErrProjectNotFoundInDir reports a directory without a project file.
func ErrProjectNotFoundInDir(dir string) error {
	return fmt.Errorf("%w in %s", ErrProjectNotFound, dir)
}
