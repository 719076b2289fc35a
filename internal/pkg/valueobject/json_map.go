// Package valueobject holds small value types shared by storage adapters.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// MaxMetaValue caps each metadata value taken from an inbound event.
const MaxMetaValue = 256

// JSONMap is a free-form JSON object stored in a JSONB column.
// @swaggertype object
type JSONMap map[string]any

// FromEvent copies event metadata, dropping blank keys and truncating string
// values to MaxMetaValue runes.
func FromEvent(in map[string]any) JSONMap {
	out := lo.MapEntries(in, func(k string, v any) (string, any) {
		if s, ok := v.(string); ok {
			if r := []rune(s); len(r) > MaxMetaValue {
				v = string(r[:MaxMetaValue])
			}
		}
		return strings.TrimSpace(k), v
	})
	return JSONMap(lo.OmitByKeys(out, []string{""}))
}

// Value stores nil as {} so the column never holds SQL NULL.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}

// Scan accepts JSON text as bytes or string, or a map already decoded by
// pgx. NULL scans to an empty map.
func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("valueobject: cannot scan %T into JSONMap", value)
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

// GetString returns the string at key or "".
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}
