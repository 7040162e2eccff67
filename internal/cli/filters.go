package cli

import (
	"context"
	"slices"

	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
)

// ParseFilters validates and groups "field=value" expressions by field.
//
// All expressions are validated before any is applied; the first invalid one
// is returned as the error. Empty expressions are ignored and a repeated value
// is kept once. Values stay in the order given.
func ParseFilters(ctx context.Context, exprs []string) (map[string][]string, error) {
	log := logging.FromContext(ctx)

	out := make(map[string][]string)
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		field, value, err := grid.ParseFilterExpr(expr)
		if err != nil {
			log.Warn().Ctx(ctx).
				Str("component", "cli").
				Str("operation", "parse_filters").
				Str("filter", expr).
				Err(err).
				Msg("invalid filter expression")
			return nil, err
		}
		if !slices.Contains(out[field], value) {
			out[field] = append(out[field], value)
		}
	}

	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "parse_filters").
		Int("expressions", len(exprs)).
		Int("fields", len(out)).
		Msg("parsed filters")

	return out, nil
}
