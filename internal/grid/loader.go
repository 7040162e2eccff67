package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/rshade/mapgrid/internal/logging"
)

// DefaultTimeout bounds a single page fetch when the caller gives none.
const DefaultTimeout = 15 * time.Second

// Fetcher retrieves one page of grid data.
type Fetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (PageResult, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req PageRequest) (PageResult, error)

// FetchPage calls f.
func (f FetcherFunc) FetchPage(ctx context.Context, req PageRequest) (PageResult, error) {
	return f(ctx, req)
}

type reloadKey struct{}

// WithReload marks ctx as an explicit user reload. Fetchers that cache pages
// must go to the server for requests carrying it.
func WithReload(ctx context.Context) context.Context {
	return context.WithValue(ctx, reloadKey{}, true)
}

// IsReload reports whether ctx was marked with WithReload.
func IsReload(ctx context.Context) bool {
	v, _ := ctx.Value(reloadKey{}).(bool)
	return v
}

// Refresh issues a fetch for the current state and reconciles its outcome.
// A failed fetch leaves the state in StatusFailed and returns the error.
func Refresh(ctx context.Context, s *State, f Fetcher, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tok := s.Begin()
	req := s.BuildRequest()

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := logging.FromContext(ctx)
	start := time.Now()

	result, err := f.FetchPage(fetchCtx, req)
	if err != nil {
		s.Fail(tok, err)
		log.Error().Ctx(ctx).
			Str("component", "grid").
			Str("operation", "refresh").
			Str("grid_id", s.ID()).
			Str("query", req.Encode()).
			Err(err).
			Msg("grid load failed")
		return fmt.Errorf("loading grid %q: %w", s.ID(), err)
	}

	if !s.Apply(tok, result) {
		return ErrStaleResult
	}

	log.Debug().Ctx(ctx).
		Str("component", "grid").
		Str("operation", "refresh").
		Str("grid_id", s.ID()).
		Str("query", req.Encode()).
		Int("rows", len(result.Items)).
		Int("total", result.TotalCount).
		Dur("duration", time.Since(start)).
		Msg("grid page loaded")

	return nil
}
