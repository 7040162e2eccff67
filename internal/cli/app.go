package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/cli/pagination"
	"github.com/rshade/mapgrid/internal/config"
	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
	"github.com/rshade/mapgrid/internal/migration"
	"github.com/rshade/mapgrid/internal/remote"
	"github.com/rshade/mapgrid/internal/store"
)

// ErrUnknownGrid is returned for a grid ID that is not configured.
var ErrUnknownGrid = errors.New("unknown grid")

// app carries the persistent flags and the resources built from them for one
// command invocation.
type app struct {
	configPath string
	debug      bool
	baseURL    string

	cfg       *config.Config
	logResult *logging.LogPathResult
	settings  *store.SettingsStore
	cache     *remote.PageCache
}

func (a *app) resolveConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// setup loads the configuration and starts logging.
func (a *app) setup(cmd *cobra.Command) error {
	if _, skip := cmd.Annotations[annotationSkipConfig]; skip {
		result := setupLogging(cmd, config.Default().Logging, a.debug)
		a.logResult = &result
		return nil
	}

	path, err := a.resolveConfigPath()
	if err != nil {
		return err
	}

	// A missing working directory only disables the project overlay.
	cwd, _ := os.Getwd()

	cfg, err := config.LoadWithProject(cmd.Context(), path, cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
		if validateErr := cfg.Validate(); validateErr != nil {
			return validateErr
		}
	}
	a.cfg = cfg

	result := setupLogging(cmd, cfg.Logging, a.debug)
	a.logResult = &result

	logging.FromContext(cmd.Context()).Debug().
		Str("operation", "load_config").
		Str("config_path", path).
		Str("base_url", cfg.API.BaseURL).
		Int("grids", len(cfg.Grids)).
		Msg("configuration loaded")
	return nil
}

// cleanup reports page cache usage and closes the log file handle.
func (a *app) cleanup(ctx context.Context) error {
	if a.cache != nil {
		stats := a.cache.Stats()
		logging.FromContext(ctx).Debug().Ctx(ctx).
			Str("operation", "cache_stats").
			Int64("hits", stats.Hits).
			Int64("misses", stats.Misses).
			Int("pages", stats.Len).
			Msg("page cache usage")
	}
	return a.logResult.Close()
}

// grid returns the configured grid with id.
func (a *app) grid(id string) (config.GridConfig, error) {
	gc, ok := a.cfg.GridByID(id)
	if !ok {
		return config.GridConfig{}, fmt.Errorf("%w: %q (configured: %v)", ErrUnknownGrid, id, a.cfg.GridIDs())
	}
	return gc, nil
}

// visibilityStore opens the settings store, upgrading legacy settings first.
// It returns nil when settings cannot be persisted; the grid then keeps its
// column visibility in memory only.
func (a *app) visibilityStore(ctx context.Context) grid.VisibilityStore {
	if a.settings != nil {
		return a.settings
	}
	log := logging.FromContext(ctx)

	files, err := store.NewFileStore(a.cfg.State.Dir)
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("operation", "open_settings").
			Str("state_dir", a.cfg.State.Dir).
			Err(err).
			Msg("settings store unavailable, column visibility will not persist")
		return nil
	}

	if _, migrateErr := migration.Run(ctx, files); migrateErr != nil {
		log.Warn().Ctx(ctx).
			Str("operation", "migrate_settings").
			Str("state_dir", a.cfg.State.Dir).
			Err(migrateErr).
			Msg("settings migration failed")
		if errors.Is(migrateErr, migration.ErrNewerSettings) {
			// Written by a newer release; leave it untouched.
			return nil
		}
	}

	a.settings = store.NewSettingsStore(files)
	return a.settings
}

// client builds the API client, sharing one page cache per invocation.
func (a *app) client() (*remote.Client, error) {
	if a.cfg.Cache.Enabled && a.cache == nil {
		a.cache = remote.NewPageCache(a.cfg.Cache.Size, a.cfg.Cache.TTL)
	}
	return remote.NewClient(remote.ClientOptions{
		BaseURL:         a.cfg.API.BaseURL,
		Timeout:         a.cfg.API.Timeout,
		UserAgent:       a.cfg.API.UserAgent,
		MaxFeaturePages: a.cfg.API.MaxFeaturePages,
		IconsPath:       a.cfg.API.IconsPath,
		Cache:           a.cache,
	})
}

// gridState builds the state of gc seeded from the command flags. Explicit
// filters replace the configured defaults.
func (a *app) gridState(
	ctx context.Context,
	gc config.GridConfig,
	page pagination.Params,
	query string,
	filters map[string][]string,
) (*grid.State, error) {
	vs := a.visibilityStore(ctx)
	opts := gc.Options(grid.LoadVisibility(ctx, vs, gc.ID, gc.Columns), vs)
	page.Apply(&opts)
	opts.Query = query
	if len(filters) > 0 {
		opts.DefaultFilters = filters
	}

	state := grid.New(opts)
	if err := page.ApplySort(state); err != nil {
		return nil, err
	}
	return state, nil
}
