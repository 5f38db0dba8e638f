package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// ItemQuantities maps a service id to the requested quantity and is persisted as JSONB.
type ItemQuantities map[string]int

// Value marshals the map into JSON for Postgres.
func (q ItemQuantities) Value() (driver.Value, error) {
	if q == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (q *ItemQuantities) Scan(value interface{}) error {
	if value == nil {
		*q = ItemQuantities{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("item quantities: unsupported scan type %T", value)
	}

	result := make(ItemQuantities)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*q = result
	return nil
}

// Keys returns the service ids in a stable order.
func (q ItemQuantities) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
