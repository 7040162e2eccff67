package cli

import (
	"context"
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/features"
	"github.com/rshade/mapgrid/internal/logging"
	"github.com/rshade/mapgrid/internal/remote"
	"github.com/rshade/mapgrid/internal/tui"
)

// featuresFlags holds the flags of the features command.
type featuresFlags struct {
	project     string
	filters     []string
	bboxOnly    bool
	output      string
	interactive bool
}

// NewFeaturesCmd creates the features command, which drains the paginated
// feature endpoint and lists, exports or maps the result.
func NewFeaturesCmd(a *app) *cobra.Command {
	var flags featuresFlags

	cmd := &cobra.Command{
		Use:   "features",
		Short: "List, export or explore map features",
		Long: `Fetches every page of the feature endpoint and applies property filters
locally. A feature is shown when, for every filtered property, its value is one
of the selected values.

JSON output is a GeoJSON FeatureCollection with the bounding box of the
visible features. On a terminal, or with --interactive, the features open in
the map view together with the symbology icons.`,
		Example: `  # Features of project 42
  mapgrid features --project 42

  # Only design or survey stage, as GeoJSON
  mapgrid features --project 42 --filter stage=design --filter stage=survey -o json

  # Bounding box of the matching features
  mapgrid features --project 42 --filter tech=radar --bbox-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeatures(cmd, a, flags)
		},
	}

	cmd.Flags().StringVar(&flags.project, "project", "", "project to load features for")
	cmd.Flags().StringArrayVar(&flags.filters, "filter", nil, "property filter as prop=value; repeatable")
	cmd.Flags().BoolVar(&flags.bboxOnly, "bbox-only", false, "print only the bounding box of the visible features")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "explore the features in the terminal UI")

	return cmd
}

func runFeatures(cmd *cobra.Command, a *app, flags featuresFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if err := validateOutputFormat(flags.output); err != nil {
		return err
	}
	interactive, err := useInteractive(cmd, flags.interactive, flags.output)
	if err != nil {
		return err
	}
	interactive = interactive && !flags.bboxOnly

	selected, err := ParseFilters(ctx, flags.filters)
	if err != nil {
		return err
	}
	filters := features.FilterMap(selected)

	params := url.Values{}
	if flags.project != "" {
		params.Set(a.cfg.Map.ProjectParam, flags.project)
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	if interactive {
		return runMapTUI(ctx, a, client, params, filters)
	}

	all, err := client.FetchFeatures(ctx, a.cfg.Map.FeaturesPath, params)
	if err != nil {
		return err
	}

	set := features.NewFilterSet()
	set.AddFeatures(all)
	for _, prop := range filters.Properties() {
		for _, v := range filters[prop] {
			set.AddFilter(prop, v)
		}
	}
	visible := set.Visible()
	bbox := set.VisibleBounds()

	log.Debug().Ctx(ctx).
		Str("operation", "features").
		Str("project", flags.project).
		Int("total", set.Len()).
		Int("visible", len(visible)).
		Msg("features loaded")

	w := cmd.OutOrStdout()
	switch {
	case flags.bboxOnly && flags.output == outputJSON:
		return writeJSON(w, map[string]any{"bbox": bbox.Slice(), "count": len(visible)})
	case flags.bboxOnly:
		if bbox.IsZero() {
			_, err = fmt.Fprintln(w, noDataMessage)
			return err
		}
		_, err = fmt.Fprintln(w, bbox.String())
		return err
	case flags.output == outputJSON:
		return writeJSON(w, features.ToFeatureCollection(visible))
	default:
		return renderFeatureTable(w, visible, set.Len(), a.cfg.Map.FilterProperties, bbox)
	}
}

func runMapTUI(ctx context.Context, a *app, client *remote.Client, params url.Values, filters features.FilterMap) error {
	featuresPath := a.cfg.Map.FeaturesPath
	m := tui.NewMapModel(ctx, tui.MapModelOptions{
		Load: func(ctx context.Context) (remote.MapData, error) {
			return client.LoadMap(ctx, featuresPath, params)
		},
		FilterProperties: a.cfg.Map.FilterProperties,
		PopupFields:      a.cfg.Map.PopupFields,
		LabelProperty:    a.cfg.Map.LabelProperty,
		Filters:          filters,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}
