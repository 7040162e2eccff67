package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

//nolint:gochecknoglobals // validator caches struct metadata; one instance per process.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	seen := make(map[string]bool, len(c.Grids))
	for _, g := range c.Grids {
		if seen[g.ID] {
			return fmt.Errorf("%w: duplicate grid id %q", ErrInvalid, g.ID)
		}
		seen[g.ID] = true

		if err := g.validateOptions(); err != nil {
			return err
		}
	}
	return nil
}

func (g GridConfig) validateOptions() error {
	columns := make(map[string]bool, len(g.Columns))
	for _, col := range g.Columns {
		columns[col] = true
	}

	for _, o := range g.SortOptions {
		if !columns[o.Label] {
			return fmt.Errorf("%w: grid %q sort option %q is not a configured column", ErrInvalid, g.ID, o.Label)
		}
	}

	for _, f := range g.FilterOptions {
		keys := make(map[string]bool, len(f.Options))
		for _, opt := range f.Options {
			keys[opt.Key] = true
		}
		for _, d := range f.Default {
			if !keys[d] {
				return fmt.Errorf("%w: grid %q filter %q default %q is not an option", ErrInvalid, g.ID, f.Field, d)
			}
		}
	}
	return nil
}
