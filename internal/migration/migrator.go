package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/mapgrid/internal/logging"
	"github.com/rshade/mapgrid/internal/store"
)

const (
	// CurrentVersion is the settings layout written by this build.
	CurrentVersion = "2.0.0"

	// legacyVersion is assumed when no marker file exists.
	legacyVersion = "1.0.0"

	// MarkerFile records the settings layout version inside the settings directory.
	MarkerFile = "settings.version"

	legacySuffix = "-columns.json"
)

// ErrNewerSettings indicates the settings directory was written by a newer build.
var ErrNewerSettings = errors.New("settings directory was written by a newer version")

// Result summarises a migration run.
type Result struct {
	From     string
	To       string
	Migrated []string
	Skipped  []string
}

// Changed reports whether the run touched the settings directory.
func (r Result) Changed() bool {
	return r.From != r.To
}

// DetectVersion returns the settings layout version recorded in dir.
// A missing marker means the pre-envelope layout.
func DetectVersion(dir string) (*semver.Version, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return semver.MustParse(legacyVersion), nil
		}
		return nil, fmt.Errorf("reading settings version: %w", err)
	}

	v, err := semver.NewVersion(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing settings version %q: %w", strings.TrimSpace(string(data)), err)
	}
	return v, nil
}

// FindLegacy returns the grid IDs that still have a legacy "<id>-columns.json" file in dir.
func FindLegacy(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, legacySuffix) {
			continue
		}
		if id := strings.TrimSuffix(name, legacySuffix); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Run upgrades the settings directory behind files to CurrentVersion.
//
// Legacy files hold a bare visibility map. Each one is rewritten as an envelope
// entry under store.ColumnsKey and then removed. Unreadable legacy files are
// removed without being migrated; the grid falls back to all columns visible.
func Run(ctx context.Context, files *store.FileStore) (Result, error) {
	log := logging.FromContext(ctx)
	dir := files.Dir()
	target := semver.MustParse(CurrentVersion)

	current, err := DetectVersion(dir)
	if err != nil {
		return Result{}, err
	}

	result := Result{From: current.String(), To: current.String()}
	if current.GreaterThan(target) {
		return result, fmt.Errorf("%w: %s > %s", ErrNewerSettings, current, target)
	}
	if !current.LessThan(target) {
		return result, nil
	}

	ids, err := FindLegacy(dir)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		legacyPath := filepath.Join(dir, id+legacySuffix)
		if migrateErr := migrateColumns(files, id, legacyPath); migrateErr != nil {
			log.Debug().
				Str("component", "migration").
				Str("grid_id", id).
				Err(migrateErr).
				Msg("skipping unreadable legacy column settings")
			result.Skipped = append(result.Skipped, id)
		} else {
			result.Migrated = append(result.Migrated, id)
		}

		if rmErr := os.Remove(legacyPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return result, fmt.Errorf("removing legacy settings %s: %w", legacyPath, rmErr)
		}
	}

	if writeErr := os.WriteFile(filepath.Join(dir, MarkerFile), []byte(target.String()+"\n"), 0o600); writeErr != nil {
		return result, fmt.Errorf("writing settings version: %w", writeErr)
	}
	result.To = target.String()

	log.Info().
		Str("component", "migration").
		Str("from", result.From).
		Str("to", result.To).
		Int("migrated", len(result.Migrated)).
		Int("skipped", len(result.Skipped)).
		Msg("settings migrated")

	return result, nil
}

func migrateColumns(files *store.FileStore, id, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var visibility map[string]bool
	if unmarshalErr := json.Unmarshal(data, &visibility); unmarshalErr != nil {
		return unmarshalErr
	}
	if visibility == nil {
		return errors.New("empty visibility map")
	}

	// An envelope entry written after the legacy file wins.
	if _, getErr := files.Get(store.ColumnsKey(id)); getErr == nil {
		return nil
	}

	encoded, err := json.Marshal(visibility)
	if err != nil {
		return err
	}
	return files.Set(store.ColumnsKey(id), encoded)
}
