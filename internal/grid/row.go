package grid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// NullPlaceholder is rendered in place of null cell values.
const NullPlaceholder = "---"

// Cell is one column value of a Row. Value is a string, float64, bool or nil.
type Cell struct {
	Column string
	Value  any
}

// Row is one record of tabular data keyed by column name, in API key order.
type Row []Cell

// Get returns the value for column and whether the row has that column.
func (r Row) Get(column string) (any, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return nil, false
}

// TextAt returns the display text of the i-th cell, or NullPlaceholder when
// the row is shorter.
func (r Row) TextAt(i int) string {
	if i < 0 || i >= len(r) {
		return NullPlaceholder
	}
	return FormatValue(r[i].Value)
}

// FormatValue renders a scalar cell value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NullPlaceholder
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// UnmarshalJSON decodes a JSON object into a Row, preserving key order.
// Nested objects and arrays are kept as their compact JSON text.
func (r *Row) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("cannot unmarshal into nil Row")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}

	row := Row{}
	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return keyErr
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if decErr := dec.Decode(&raw); decErr != nil {
			return fmt.Errorf("decoding column %q: %w", key, decErr)
		}
		row = append(row, Cell{Column: key, Value: scalarValue(raw)})
	}

	*r = row
	return nil
}

// MarshalJSON encodes the Row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func scalarValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch v.(type) {
	case map[string]any, []any:
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return string(raw)
		}
		return compact.String()
	default:
		return v
	}
}
