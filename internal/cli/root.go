package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// annotationSkipConfig marks commands that run without loading the config file.
const annotationSkipConfig = "mapgrid/skip-config"

// NewRootCmd creates the root Cobra command for the mapgrid CLI.
// It loads configuration, wires up logging and tracing, and registers the
// grid, features, columns and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "mapgrid",
		Short:   "Browse paged data grids and map features from a REST API",
		Long:    "mapgrid: page, sort, search and filter tabular API data and explore GeoJSON features in the terminal",
		Version: ver,
		Example: rootCmdExample,

		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.cleanup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.mapgrid/config.yaml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "",
		"API base URL (overrides the config file and MAPGRID_BASE_URL)")

	cmd.AddCommand(NewGridCmd(a), NewFeaturesCmd(a), NewColumnsCmd(a), newConfigCmd(a))
	return cmd
}

const rootCmdExample = `  # Print page 2 of the "projects" grid sorted by name, newest first
  mapgrid grid projects --page 2 --sort name:desc

  # Search and filter, as JSON
  mapgrid grid projects -q "main street" --filter stage=design -o json

  # Browse a grid interactively
  mapgrid grid projects -i

  # List the features of a project with stage=survey
  mapgrid features --project 42 --filter stage=survey

  # Explore the features of a project on the map view
  mapgrid features --project 42 -i

  # Hide a column of a grid
  mapgrid columns projects --toggle Created

  # Initialize configuration
  mapgrid config init`

// newConfigCmd creates the config command group.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(a), NewConfigShowCmd(a), NewConfigValidateCmd(a))
	return cmd
}
