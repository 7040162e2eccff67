package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/cli/pagination"
	"github.com/rshade/mapgrid/internal/config"
	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
	"github.com/rshade/mapgrid/internal/tui"
)

// Capability errors for grid flags.
var (
	ErrNotSearchable = errors.New("grid does not support search")
	ErrNotFilterable = errors.New("grid does not support filters")
)

// gridFlags holds the flags of the grid command.
type gridFlags struct {
	page        *pagination.Params
	query       string
	filters     []string
	output      string
	interactive bool
}

// NewGridCmd creates the grid command, which fetches one page of a configured
// grid or browses it interactively.
func NewGridCmd(a *app) *cobra.Command {
	flags := gridFlags{page: pagination.NewParams()}

	cmd := &cobra.Command{
		Use:   "grid <id>",
		Short: "Fetch or browse a configured data grid",
		Long: `Fetches one page of a configured grid and prints the visible columns.

Sorting, search and filters are sent to the API; page size is capped at 30.
On a terminal, or with --interactive, the grid opens in a browser where
n/p page, s sorts the focused column, / searches, f filters and c toggles
columns. Column visibility is saved per grid.`,
		Example: `  # First page of the projects grid
  mapgrid grid projects

  # Third page, ten rows, sorted by creation date descending
  mapgrid grid projects --page 3 --per-page 10 --sort -created

  # Two stage values and a search term, as JSON
  mapgrid grid projects --filter stage=design --filter stage=survey -q elm -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, a, args[0], flags)
		},
	}

	flags.page.AddFlags(cmd)
	cmd.Flags().StringVarP(&flags.query, "query", "q", "", "free-text search")
	cmd.Flags().StringArrayVar(&flags.filters, "filter", nil,
		"filter as field=value; repeat for several values (replaces configured defaults)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "browse the grid in the terminal UI")

	return cmd
}

func runGrid(cmd *cobra.Command, a *app, id string, flags gridFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if err := flags.page.Validate(); err != nil {
		return err
	}
	if err := validateOutputFormat(flags.output); err != nil {
		return err
	}
	interactive, err := useInteractive(cmd, flags.interactive, flags.output)
	if err != nil {
		return err
	}

	gc, err := a.grid(id)
	if err != nil {
		return err
	}
	caps := gc.EffectiveCapabilities()
	if flags.query != "" && !caps.Searchable {
		return fmt.Errorf("%w: %q", ErrNotSearchable, id)
	}

	filters, err := ParseFilters(ctx, flags.filters)
	if err != nil {
		return err
	}
	if len(filters) > 0 && !caps.Filterable {
		return fmt.Errorf("%w: %q", ErrNotFilterable, id)
	}

	state, err := a.gridState(ctx, gc, *flags.page, flags.query, filters)
	if err != nil {
		return err
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	fetcher := client.Endpoint(gc.URL)

	log.Debug().Ctx(ctx).
		Str("operation", "grid").
		Str("grid_id", gc.ID).
		Str("query", state.BuildRequest().Encode()).
		Bool("interactive", interactive).
		Msg("grid command")

	if interactive {
		return runGridTUI(ctx, gc, state, fetcher, a.cfg.API.Timeout)
	}

	if refreshErr := grid.Refresh(ctx, state, fetcher, a.cfg.API.Timeout); refreshErr != nil {
		return refreshErr
	}

	if flags.output == outputJSON {
		return renderGridJSON(cmd.OutOrStdout(), state)
	}
	return renderGridTable(cmd.OutOrStdout(), state)
}

func runGridTUI(
	ctx context.Context,
	gc config.GridConfig,
	state *grid.State,
	fetcher grid.Fetcher,
	timeout time.Duration,
) error {
	m := tui.NewGridModel(ctx, tui.GridModelOptions{
		Grid:    gc,
		State:   state,
		Fetcher: fetcher,
		Timeout: timeout,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}
