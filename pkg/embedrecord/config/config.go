package config

import "math"

// Config is a decoded YAML or JSON mapping. Accessors return the default
// when a key is missing or holds the wrong shape.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map is an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Int returns the integer value for key, or defaultVal if missing or not a
// whole number. JSON numbers arrive as float64 and are accepted when they
// carry no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	if n, ok := toInt64(c.data[key]); ok {
		return int(n)
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing or
// if any element is not a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.data[key].(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// Map returns the nested document for key as a Config.
// Missing keys and non-map values yield an empty Config.
func (c Config) Map(key string) Config {
	if m, ok := c.data[key].(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Slice returns the list for key, or nil if missing or not a list.
func (c Config) Slice(key string) []any {
	if s, ok := c.data[key].([]any); ok {
		return s
	}
	return nil
}

// Keys returns the top-level keys. The order is not guaranteed.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Any returns the raw value for key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	return v
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val), true
		}
	case float64:
		if val == math.Trunc(val) && val >= math.MinInt64 && val < math.MaxInt64 {
			return int64(val), true
		}
	}
	return 0, false
}
