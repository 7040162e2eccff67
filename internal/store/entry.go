package store

import (
	"encoding/json"
	"errors"
	"time"
)

// SchemaVersion is the current envelope schema version.
const SchemaVersion = 2

// Entry is a stored value with its metadata.
type Entry struct {
	// Version is the envelope schema version the entry was written with.
	Version int `json:"version"`

	// Key is the logical key, e.g. "grid/projects/columns".
	Key string `json:"key"`

	// Data is the stored value.
	Data json.RawMessage `json:"data"`

	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntry wraps data for key using the current schema version.
func NewEntry(key string, data json.RawMessage) *Entry {
	return &Entry{
		Version:   SchemaVersion,
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
}

// MarshalJSON formats UpdatedAt as RFC3339.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal(&struct {
		*Alias

		UpdatedAt string `json:"updated_at"`
	}{
		Alias:     (*Alias)(e),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	})
}

// UnmarshalJSON parses the RFC3339 UpdatedAt timestamp.
func (e *Entry) UnmarshalJSON(data []byte) error {
	if e == nil {
		return errors.New("cannot unmarshal into nil Entry")
	}
	type Alias Entry
	aux := &struct {
		*Alias

		UpdatedAt string `json:"updated_at"`
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.UpdatedAt == "" {
		e.UpdatedAt = time.Time{}
		return nil
	}

	var err error
	e.UpdatedAt, err = time.Parse(time.RFC3339, aux.UpdatedAt)
	return err
}
