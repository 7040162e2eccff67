package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/mapgrid/internal/logging"
)

// ToLoggingConfig converts LoggingConfig to logging.Config.
//
// The conversion applies these rules:
//   - Level and Format are copied; debug forces the level to "debug"
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc LoggingConfig) ToLoggingConfig(debug bool) logging.Config {
	level := lc.Level
	if debug {
		level = "debug"
	}

	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
		Caller: debug,
	}
}

// EnsureLogDir creates the directory holding the configured log file.
func (lc LoggingConfig) EnsureLogDir() error {
	if lc.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(lc.File), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return nil
}
