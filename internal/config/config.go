package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Config holds the configuration parameters for one script. A fresh Config
// carries the declared defaults; LoadWiki or LoadString replace them with
// externally supplied values, backfilling any default key the source leaves
// out.
type Config struct {
	// Script is the owning script's name.
	Script string

	defaults map[string]Value
	values   map[string]Value
}

// New creates a configuration seeded with the given defaults.
func New(script string, defaults map[string]Value) *Config {
	if defaults == nil {
		defaults = map[string]Value{}
	}
	return &Config{
		Script:   script,
		defaults: maps.Clone(defaults),
		values:   maps.Clone(defaults),
	}
}

// IsDefault reports whether the current configuration equals the defaults
// from initialization.
func (c *Config) IsDefault() bool {
	return maps.Equal(c.values, c.defaults)
}

// Get returns the value for key, if present.
func (c *Config) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value under key.
func (c *Config) Set(key string, v Value) {
	c.values[key] = v
}

// Keys returns all present keys in sorted order.
func (c *Config) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Len returns the number of present keys.
func (c *Config) Len() int { return len(c.values) }

// Require returns the value for key if its kind is one of want, and a
// *TypeError otherwise. A missing key is reported as a *TypeError with a
// nil value.
func (c *Config) Require(key string, want ...Kind) (Value, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, &TypeError{Script: c.Script, Key: key, Want: want}
	}
	if slices.Contains(want, v.Kind()) {
		return v, nil
	}
	return nil, &TypeError{Script: c.Script, Key: key, Value: v, Want: want}
}

// Bool returns the boolean value for key.
func (c *Config) Bool(key string) (bool, error) {
	v, err := c.Require(key, KindBool)
	if err != nil {
		return false, err
	}
	return bool(v.(Bool)), nil
}

// Int returns the integer value for key.
func (c *Config) Int(key string) (int64, error) {
	v, err := c.Require(key, KindInt)
	if err != nil {
		return 0, err
	}
	return int64(v.(Int)), nil
}

// Float returns the floating-point value for key. An integer value is
// accepted and widened, since the wiki-side auto-coercion turns "5" into an
// integer even where the script expects a float.
func (c *Config) Float(key string) (float64, error) {
	v, err := c.Require(key, KindFloat, KindInt)
	if err != nil {
		return 0, err
	}
	if i, ok := v.(Int); ok {
		return float64(i), nil
	}
	return float64(v.(Float)), nil
}

// Text returns the string value for key.
func (c *Config) Text(key string) (string, error) {
	v, err := c.Require(key, KindString)
	if err != nil {
		return "", err
	}
	return string(v.(String)), nil
}

// LoadString replaces the configuration from a flat override string of
// template-parameter shape: "|key=value|key2=value2" (the leading pipe is
// optional). Values go through the usual auto-coercion. Default keys absent
// from the override are backfilled.
func (c *Config) LoadString(override string) {
	params := map[string]Value{}
	for _, part := range strings.Split(override, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, raw, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		params[strings.TrimSpace(key)] = Detect(strings.TrimSpace(raw))
	}
	c.values = params
	c.ensureDefaults()
}

// ensureDefaults backfills all keys from the default configuration that are
// not currently present.
func (c *Config) ensureDefaults() {
	for key, v := range c.defaults {
		if _, ok := c.values[key]; !ok {
			c.values[key] = v
		}
	}
}

// String returns a compact key=value listing for debug logs.
func (c *Config) String() string {
	parts := make([]string, 0, len(c.values))
	for _, key := range c.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", key, c.values[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
