package config

import (
	"fmt"
	"strings"
)

// TypeError reports a configuration key whose value does not match the
// expected kind(s), or is missing entirely.
type TypeError struct {
	Script string
	Key    string
	Value  Value // nil when the key is missing
	Want   []Kind
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	names := make([]string, len(e.Want))
	for i, k := range e.Want {
		names[i] = k.String()
	}
	want := strings.Join(names, " or ")
	if e.Value == nil {
		return fmt.Sprintf("config %q: key %q is missing, want %s", e.Script, e.Key, want)
	}
	return fmt.Sprintf("config %q: key %q has %s value %q, want %s",
		e.Script, e.Key, e.Value.Kind(), e.Value.String(), want)
}

// PageNotFoundError reports a missing script configuration page.
type PageNotFoundError struct {
	Script string
	Page   string
}

// Error implements the error interface.
func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf(
		"the configuration page for the %q script could not be found at %q",
		e.Script, e.Page)
}
