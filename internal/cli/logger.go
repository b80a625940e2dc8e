package cli

import (
	"github.com/glorpus-work/downgrade/pkg/config"
	"github.com/glorpus-work/downgrade/pkg/logger"
)

// setupLogging initializes the global logger from the effective settings.
// Coloured output goes through the pretty handler, JSON output keeps the
// log stream machine-readable as well.
func setupLogging(cfg *config.Config) {
	logger.InitLogger(cfg.Settings.LogLevel, logFormat(cfg.Settings))
}

func logFormat(s config.Settings) logger.Format {
	switch {
	case s.OutputFormat == outputJSON:
		return logger.FormatJSON
	case s.ColorOutput:
		return logger.FormatPretty
	default:
		return logger.FormatText
	}
}
