package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/cli/pagination"
	"github.com/rshade/mapgrid/internal/features"
	"github.com/rshade/mapgrid/internal/grid"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// noDataMessage is printed in place of rows when a result is empty.
const noDataMessage = "No available data"

// Output errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInteractiveFormat = errors.New("--interactive cannot be combined with --output json")
)

func validateOutputFormat(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q (use table or json)", ErrUnsupportedFormat, format)
	}
}

// useInteractive decides whether a command starts the terminal UI: always
// with --interactive, and on a terminal when no output format was requested.
func useInteractive(cmd *cobra.Command, interactive bool, format string) (bool, error) {
	if interactive {
		if format == outputJSON {
			return false, ErrInteractiveFormat
		}
		return true, nil
	}
	if cmd.Flags().Changed("output") {
		return false, nil
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stdin), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// gridOutput is the JSON document printed by the grid command.
type gridOutput struct {
	Grid       string                    `json:"grid"`
	Columns    []string                  `json:"columns"`
	Sort       string                    `json:"sort,omitempty"`
	Query      string                    `json:"query,omitempty"`
	Filters    map[string][]string       `json:"filters,omitempty"`
	Items      []grid.Row                `json:"items"`
	Pagination pagination.PaginationMeta `json:"pagination"`
}

func renderGridJSON(w io.Writer, s *grid.State) error {
	req := s.BuildRequest()
	items := s.Rows()
	if items == nil {
		items = []grid.Row{}
	}
	return writeJSON(w, gridOutput{
		Grid:       s.ID(),
		Columns:    s.VisibleColumns(),
		Sort:       req.Sort,
		Query:      req.Query,
		Filters:    req.Filters,
		Items:      items,
		Pagination: pagination.NewPaginationMeta(s),
	})
}

// renderGridTable prints the visible columns of the current page followed by
// the showing-range footer.
func renderGridTable(w io.Writer, s *grid.State) error {
	cols := s.VisibleColumns()
	if len(cols) == 0 {
		_, err := fmt.Fprintln(w, "All columns are hidden. Use 'mapgrid columns "+s.ID()+" --toggle <column>' to show one.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	upper := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		upper[i] = strings.ToUpper(c)
		rule[i] = strings.Repeat("-", len(c))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(upper, "\t")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rule, "\t")); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	if s.Status() == grid.StatusEmpty {
		if _, err := fmt.Fprintln(tw, noDataMessage); err != nil {
			return err
		}
	}
	for _, row := range s.Rows() {
		if _, err := fmt.Fprintln(tw, strings.Join(s.Project(row), "\t")); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	footer := s.RangeLabel()
	if s.TotalCount() > 0 {
		footer += fmt.Sprintf(" | Page %d of %d", s.Page(), s.LastPage())
	}
	_, err := fmt.Fprintln(w, "\n"+footer)
	return err
}

// renderFeatureTable prints one line per feature with the filter properties
// as extra columns, then the counts and the bounding box.
func renderFeatureTable(w io.Writer, visible []features.Feature, total int, props []string, bbox features.BoundingBox) error {
	tw := tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)

	header := []string{"ID", "LON", "LAT"}
	for _, p := range props {
		header = append(header, strings.ToUpper(p))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if len(visible) == 0 {
		if _, err := fmt.Fprintln(tw, noDataMessage); err != nil {
			return err
		}
	}
	for _, f := range visible {
		cells := []string{f.ID, fmt.Sprintf("%.6f", f.Lon()), fmt.Sprintf("%.6f", f.Lat())}
		for _, p := range props {
			v, ok := f.Property(p)
			if !ok || v == "" {
				v = grid.NullPlaceholder
			}
			cells = append(cells, v)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	bounds := "none"
	if !bbox.IsZero() {
		bounds = bbox.String()
	}
	_, err := fmt.Fprintf(w, "\n%d of %d features | Bounds: %s\n", len(visible), total, bounds)
	return err
}
