package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rshade/mapgrid/internal/logging"
)

// ProjectFileName is the project-local overlay looked up in the working directory.
const ProjectFileName = ".mapgrid.yaml"

// Top-level YAML config key names used for shallow merge.
const (
	keyAPI     = "api"
	keyCache   = "cache"
	keyGrids   = "grids"
	keyMap     = "map"
	keyLogging = "logging"
	keyState   = "state"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. Keys present in the overlay replace entire sections in the target.
// Keys absent in the overlay, and unknown keys, are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = unmarshalSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes node into a fresh value for key so the section is
// replaced rather than merged.
func unmarshalSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyAPI:
		var v APIConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.API = v
	case keyCache:
		var v CacheConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Cache = v
	case keyGrids:
		var v []GridConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Grids = v
	case keyMap:
		var v MapConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Map = v
	case keyLogging:
		var v LoggingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyState:
		var v StateConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.State = v
	}
	return nil
}

// LoadWithProject is Load with ProjectFileName from dir shallow-merged over
// the file before environment overrides apply. A broken overlay is logged and
// ignored.
func LoadWithProject(ctx context.Context, path, dir string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return finish(cfg)
	}

	overlayPath := filepath.Join(dir, ProjectFileName)
	if _, statErr := os.Stat(overlayPath); statErr != nil {
		return finish(cfg)
	}

	merged := *cfg
	if mergeErr := ShallowMergeYAML(&merged, overlayPath); mergeErr != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(mergeErr).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global config")
		return finish(cfg)
	}
	return finish(&merged)
}
