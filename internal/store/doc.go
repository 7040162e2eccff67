// Package store provides the persisted key-value store for per-grid display
// settings.
//
// Each key is stored as one JSON file under the settings directory, wrapped in a
// versioned envelope. Writes go through a temporary file and a rename so a crash
// never leaves a half-written entry. Unreadable or outdated entries are reported
// as ErrCorrupted so callers can fall back to defaults.
package store
