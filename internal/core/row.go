package core

import (
	"fmt"
	"sort"
	"strconv"
)

// Row is one result row keyed by column name. Text columns that drivers
// return as []byte are converted to string; NULL is nil.
//
// Example:
//
//	row, _ := conn.Table("users").Find(1)
//	if row != nil {
//	    name := row.String("name")
//	}
type Row map[string]any

func newRow(m map[string]any) Row {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
	return Row(m)
}

// String returns the value for key formatted as a string.
// Returns empty string if the key doesn't exist or the value is NULL.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the value for key as an int64 and whether the conversion
// succeeded. Numeric strings are parsed, which covers drivers that report
// aggregates as text.
func (r Row) Int64(key string) (int64, bool) {
	return toInt64(r[key])
}

// IsNull checks if the value for the given key is NULL or doesn't exist.
func (r Row) IsNull(key string) bool {
	return r[key] == nil
}

// Has checks if the column exists in the row (regardless of NULL status).
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns all column names in sorted order.
func (r Row) Keys() []string {
	return sortedKeys(r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}
