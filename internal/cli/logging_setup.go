package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/config"
	"github.com/rshade/mapgrid/internal/logging"
)

// setupLogging configures logging from the loaded config and the --debug flag
// and stores the logger and a trace ID in the command context.
func setupLogging(cmd *cobra.Command, lc config.LoggingConfig, debug bool) logging.LogPathResult {
	if debug {
		// Debug output goes to the terminal.
		lc.Format = logging.FormatConsole
		lc.File = ""
	}

	if err := lc.EnsureLogDir(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
	}

	result := logging.NewLoggerWithPath(lc.ToLoggingConfig(debug))
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.CommandPath()).Msg("command started")

	return result
}
