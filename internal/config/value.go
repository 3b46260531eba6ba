// Package config implements per-script configuration: a key/value store
// with declared defaults, loaded from a wiki page's template parameters or
// from a flat string override, and validated on read.
package config

import (
	"strconv"
	"strings"
)

// Kind identifies the type of a configuration value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a sealed interface over the configuration value types. Only
// Bool, Int, Float and String implement it. Values are immutable.
type Value interface {
	value() // sealed

	// Kind returns the value's type tag.
	Kind() Kind

	// String returns the textual form, as it would appear in a template
	// parameter on the wiki.
	String() string
}

// Bool is a boolean configuration value.
type Bool bool

func (Bool) value() {}

func (Bool) Kind() Kind { return KindBool }

func (b Bool) String() string {
	return strconv.FormatBool(bool(b))
}

// Int is an integer configuration value.
type Int int64

func (Int) value() {}

func (Int) Kind() Kind { return KindInt }

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// Float is a floating-point configuration value.
type Float float64

func (Float) value() {}

func (Float) Kind() Kind { return KindFloat }

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// String is a plain string configuration value.
type String string

func (String) value() {}

func (String) Kind() Kind { return KindString }

func (s String) String() string {
	return string(s)
}

// Detect parses a raw template parameter into a tagged value, using the
// documented auto-coercion order: boolean ("true"/"false", any case), then
// integer, then float, then plain string.
func Detect(raw string) Value {
	if strings.EqualFold(raw, "true") {
		return Bool(true)
	}
	if strings.EqualFold(raw, "false") {
		return Bool(false)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f)
	}
	return String(raw)
}
