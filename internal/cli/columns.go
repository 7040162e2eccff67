package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
)

// Column command errors.
var (
	ErrUnknownColumn         = errors.New("unknown column")
	ErrColumnToggleDisabled  = errors.New("grid does not allow toggling columns")
	ErrSettingsNotPersistent = errors.New("settings store unavailable, column visibility was not saved")
)

// NewColumnsCmd creates the columns command, which lists a grid's columns
// and toggles their persisted visibility.
func NewColumnsCmd(a *app) *cobra.Command {
	var toggles []string

	cmd := &cobra.Command{
		Use:   "columns [id]",
		Short: "Show or toggle the visible columns of a grid",
		Example: `  # List grids, marking those with saved column settings
  mapgrid columns

  # Show which columns are visible
  mapgrid columns projects

  # Hide "Created" (or show it again if hidden)
  mapgrid columns projects --toggle Created`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if len(toggles) > 0 {
					return errors.New("--toggle requires a grid id")
				}
				return runListSaved(cmd, a)
			}
			return runColumns(cmd, a, args[0], toggles)
		},
	}

	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "column to show or hide; repeatable")
	return cmd
}

// runListSaved prints every configured grid and whether its column
// visibility has been saved.
func runListSaved(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()

	var saved []string
	if a.visibilityStore(ctx) != nil {
		ids, err := a.settings.SavedGrids(ctx)
		if err != nil {
			logging.FromContext(ctx).Warn().Ctx(ctx).
				Str("operation", "list_saved_columns").
				Err(err).
				Msg("could not read saved column settings")
		}
		saved = ids
	}

	w := cmd.OutOrStdout()
	for _, id := range a.cfg.GridIDs() {
		line := id
		if slices.Contains(saved, id) {
			line += " (saved)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func runColumns(cmd *cobra.Command, a *app, id string, toggles []string) error {
	ctx := cmd.Context()

	gc, err := a.grid(id)
	if err != nil {
		return err
	}

	vs := a.visibilityStore(ctx)
	opts := gc.Options(grid.LoadVisibility(ctx, vs, gc.ID, gc.Columns), vs)
	state := grid.New(opts)

	if len(toggles) > 0 {
		if !state.Capabilities().ColumnToggle {
			return fmt.Errorf("%w: %q", ErrColumnToggleDisabled, id)
		}
		for _, c := range toggles {
			if !slices.Contains(gc.Columns, c) {
				return fmt.Errorf("%w: %q (columns: %v)", ErrUnknownColumn, c, gc.Columns)
			}
		}
		for _, c := range toggles {
			state.ToggleColumnVisibility(ctx, c)
		}
		logging.FromContext(ctx).Info().Ctx(ctx).
			Str("operation", "toggle_columns").
			Str("grid_id", id).
			Strs("columns", toggles).
			Msg("column visibility changed")
	}

	w := cmd.OutOrStdout()
	for _, c := range state.Columns() {
		mark := "[ ]"
		if state.IsColumnVisible(c) {
			mark = "[x]"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", mark, c); err != nil {
			return err
		}
	}

	if len(toggles) > 0 && vs == nil {
		return ErrSettingsNotPersistent
	}
	return nil
}
