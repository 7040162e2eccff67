package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/mapgrid/internal/features"
	"github.com/rshade/mapgrid/internal/grid"
)

// Defaults applied by Default and by Load for unset fields.
const (
	DefaultBaseURL         = "http://localhost:8000"
	DefaultTimeout         = 15 * time.Second
	DefaultUserAgent       = "mapgrid"
	DefaultMaxFeaturePages = 200
	DefaultIconsPath       = "/api/symbology/icons/"
	DefaultFeaturesPath    = "/api/measurements/"
	DefaultProjectParam    = "project"
	DefaultLabelProperty   = "object_id"
	DefaultCacheTTL        = 30 * time.Second
	DefaultCacheSize       = 128

	dirName        = ".mapgrid"
	configFileName = "config.yaml"
	stateDirName   = "state"
)

// Config is the complete mapgrid configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Grids   []GridConfig  `yaml:"grids"   validate:"dive"`
	Map     MapConfig     `yaml:"map"`
	Logging LoggingConfig `yaml:"logging"`
	State   StateConfig   `yaml:"state"`
}

// APIConfig describes the REST backend.
type APIConfig struct {
	BaseURL         string        `yaml:"base_url"          validate:"required,url"`
	Timeout         time.Duration `yaml:"timeout"           validate:"gt=0"`
	UserAgent       string        `yaml:"user_agent"`
	MaxFeaturePages int           `yaml:"max_feature_pages" validate:"gte=1"`
	IconsPath       string        `yaml:"icons_path"        validate:"required"`
}

// CacheConfig controls the in-memory grid page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"     validate:"gt=0"`
	Size    int           `yaml:"size"    validate:"gte=1,lte=100000"`
}

// GridConfig configures one data grid.
type GridConfig struct {
	ID            string             `yaml:"id"                     validate:"required,excludesall=/\\:"`
	Title         string             `yaml:"title,omitempty"`
	URL           string             `yaml:"url"                    validate:"required"`
	PerPage       int                `yaml:"per_page,omitempty"     validate:"gte=0"`
	Columns       []string           `yaml:"columns"                validate:"required,min=1,unique,dive,required"`
	SortOptions   []SortOption       `yaml:"sort_options,omitempty" validate:"dive"`
	FilterOptions []FilterOption     `yaml:"filter_options,omitempty" validate:"dive"`
	Capabilities  *grid.Capabilities `yaml:"capabilities,omitempty"`
}

// SortOption maps a column label to the API sort key.
type SortOption struct {
	Label string `yaml:"label" validate:"required"`
	Sort  string `yaml:"sort"  validate:"required"`
}

// FilterOption describes one filter menu.
type FilterOption struct {
	Field   string         `yaml:"field"             validate:"required"`
	Label   string         `yaml:"label"`
	Options []FilterChoice `yaml:"options"           validate:"required,min=1,dive"`
	Default []string       `yaml:"default,omitempty"`
}

// FilterChoice is one selectable filter value. Key is sent to the API and
// Value is displayed.
type FilterChoice struct {
	Key   string `yaml:"key"   validate:"required"`
	Value string `yaml:"value" validate:"required"`
}

// MapConfig configures the feature map.
type MapConfig struct {
	FeaturesPath     string                `yaml:"features_path"     validate:"required"`
	ProjectParam     string                `yaml:"project_param"     validate:"required"`
	LabelProperty    string                `yaml:"label_property"`
	FilterProperties []string              `yaml:"filter_properties" validate:"dive,required"`
	PopupFields      []features.PopupField `yaml:"popup_fields"      validate:"dive"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	File   string `yaml:"file,omitempty"`
}

// StateConfig locates persisted display settings.
type StateConfig struct {
	Dir string `yaml:"dir"`
}

// Dir returns the mapgrid home directory, ~/.mapgrid.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Default returns the built-in configuration, including one example grid.
func Default() *Config {
	stateDir := stateDirName
	if dir, err := Dir(); err == nil {
		stateDir = filepath.Join(dir, stateDirName)
	}

	return &Config{
		API: APIConfig{
			BaseURL:         DefaultBaseURL,
			Timeout:         DefaultTimeout,
			UserAgent:       DefaultUserAgent,
			MaxFeaturePages: DefaultMaxFeaturePages,
			IconsPath:       DefaultIconsPath,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     DefaultCacheTTL,
			Size:    DefaultCacheSize,
		},
		Grids: []GridConfig{{
			ID:      "projects",
			Title:   "Projects",
			URL:     "/api/projects/",
			PerPage: grid.DefaultPerPage,
			Columns: []string{"ID", "Name", "Stage", "Created"},
			SortOptions: []SortOption{
				{Label: "Name", Sort: "name"},
				{Label: "Created", Sort: "created"},
			},
			FilterOptions: []FilterOption{{
				Field: "stage",
				Label: "Stage",
				Options: []FilterChoice{
					{Key: "design", Value: "Design"},
					{Key: "survey", Value: "Survey"},
					{Key: "complete", Value: "Complete"},
				},
			}},
		}},
		Map: MapConfig{
			FeaturesPath:     DefaultFeaturesPath,
			ProjectParam:     DefaultProjectParam,
			LabelProperty:    DefaultLabelProperty,
			FilterProperties: []string{"stage", "tech", "special_case"},
			PopupFields:      features.DefaultPopupFields(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		State: StateConfig{Dir: stateDir},
	}
}

// Load reads path over the defaults, applies MAPGRID_* environment overrides
// and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, unmarshalErr)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

// finish applies environment overrides, expands "~" paths and validates.
func finish(cfg *Config) (*Config, error) {
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.State.Dir = expandHome(cfg.State.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if mkErr := os.MkdirAll(filepath.Dir(path), 0o750); mkErr != nil {
		return fmt.Errorf("creating config directory: %w", mkErr)
	}

	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing config %s: %w", path, writeErr)
	}
	return nil
}

// Init writes the default configuration to path. An existing file is kept
// unless force is set.
func Init(path string, force bool) (*Config, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}

	cfg := Default()
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GridByID returns the configured grid with id.
func (c *Config) GridByID(id string) (GridConfig, bool) {
	for _, g := range c.Grids {
		if g.ID == id {
			return g, true
		}
	}
	return GridConfig{}, false
}

// GridIDs lists the configured grid identities in order.
func (c *Config) GridIDs() []string {
	ids := make([]string, len(c.Grids))
	for i, g := range c.Grids {
		ids[i] = g.ID
	}
	return ids
}

// ResolveURL resolves ref against API.BaseURL. Absolute references are returned unchanged.
func (c *Config) ResolveURL(ref string) (string, error) {
	base, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base_url: %w", ErrInvalid, err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: url %q: %w", ErrInvalid, ref, err)
	}
	return base.ResolveReference(u).String(), nil
}

// SortKeys returns the API sort keys the grid allows.
func (g GridConfig) SortKeys() []string {
	keys := make([]string, len(g.SortOptions))
	for i, o := range g.SortOptions {
		keys[i] = o.Sort
	}
	return keys
}

// SortKeyFor returns the API sort key for a column label.
func (g GridConfig) SortKeyFor(column string) (string, bool) {
	for _, o := range g.SortOptions {
		if o.Label == column {
			return o.Sort, true
		}
	}
	return "", false
}

// DefaultFilters returns the configured default selections per field.
func (g GridConfig) DefaultFilters() map[string][]string {
	out := make(map[string][]string)
	for _, f := range g.FilterOptions {
		if len(f.Default) > 0 {
			out[f.Field] = append([]string(nil), f.Default...)
		}
	}
	return out
}

// EffectiveCapabilities returns the configured capabilities, defaulting to all.
// Sorting needs sort options and filtering needs filter options either way.
func (g GridConfig) EffectiveCapabilities() grid.Capabilities {
	caps := grid.AllCapabilities()
	if g.Capabilities != nil {
		caps = *g.Capabilities
	}
	caps.Sortable = caps.Sortable && len(g.SortOptions) > 0
	caps.Filterable = caps.Filterable && len(g.FilterOptions) > 0
	return caps
}

// Options builds grid.Options for g. visibility and store may be nil.
func (g GridConfig) Options(visibility grid.Visibility, store grid.VisibilityStore) grid.Options {
	return grid.Options{
		ID:             g.ID,
		Columns:        g.Columns,
		PerPage:        g.PerPage,
		SortKeys:       g.SortKeys(),
		DefaultFilters: g.DefaultFilters(),
		Capabilities:   g.EffectiveCapabilities(),
		Visibility:     visibility,
		Store:          store,
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
