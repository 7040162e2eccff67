package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/mapgrid/internal/config"
)

// NewConfigInitCmd creates the config init command, which writes the default
// configuration with one example grid.
func NewConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values and an example grid.

The file is written to --config when given, otherwise ~/.mapgrid/config.yaml.
A .mapgrid.yaml in the working directory is merged over it at load time, and
MAPGRID_* environment variables override both.`,
		Example: `  # Create the configuration
  mapgrid config init

  # Create configuration, overwriting existing
  mapgrid config init --force`,
		Annotations: map[string]string{annotationSkipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.resolveConfigPath()
			if err != nil {
				return err
			}
			if _, err := config.Init(path, force); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}

// NewConfigShowCmd creates the config show command, which prints the effective
// configuration after the project overlay and environment overrides.
func NewConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}

// NewConfigValidateCmd creates the config validate command. Loading already
// validates, so reaching RunE means the configuration is valid.
func NewConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%d grids: %v)\n",
				len(a.cfg.Grids), a.cfg.GridIDs())
			return err
		},
	}
}
