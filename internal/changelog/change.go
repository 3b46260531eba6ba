// Package changelog maintains a forward-only history of extension changes
// embedded in a wiki page.
//
// Each run of the extensionupdates script records the delta between the
// previously stored extension list and the live one as a Change. Changes are
// serialized compactly (JSON, bzip2, base64) and stored inside HTML comments
// in ordinary page markup, so the page doubles as a human-readable changelog
// and as the bot's only durable state. Replaying every stored Change in
// order, oldest first, reconstructs the extension list as of the last run.
package changelog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Extension is one installed extension's observed attributes at a point in
// time. The "name" attribute is the unique key within an ExtensionSet.
type Extension map[string]string

// Name returns the extension's unique name.
func (e Extension) Name() string { return e["name"] }

// Clone returns a copy that shares no storage with e.
func (e Extension) Clone() Extension {
	c := make(Extension, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

// ExtensionSet is an ordered sequence of extensions, unique by name. Order
// carries no meaning; consumers treat it as a set of records.
type ExtensionSet []Extension

// AttrValue is an (attribute, value) pair. It serializes as a two-element
// JSON array to match the stored record layout.
type AttrValue struct {
	Name  string
	Value string
}

// MarshalJSON implements json.Marshaler.
func (a AttrValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Name, a.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AttrValue) UnmarshalJSON(data []byte) error {
	var tuple []string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("attribute pair has %d elements, want 2", len(tuple))
	}
	a.Name, a.Value = tuple[0], tuple[1]
	return nil
}

// AttrChange is an (attribute, old value, new value) triple. It serializes
// as a three-element JSON array.
type AttrChange struct {
	Name string
	Old  string
	New  string
}

// MarshalJSON implements json.Marshaler.
func (a AttrChange) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{a.Name, a.Old, a.New})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AttrChange) UnmarshalJSON(data []byte) error {
	var tuple []string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 3 {
		return fmt.Errorf("attribute triple has %d elements, want 3", len(tuple))
	}
	a.Name, a.Old, a.New = tuple[0], tuple[1], tuple[2]
	return nil
}

// AttrDelta describes how a single extension's attributes changed between
// two observations.
type AttrDelta struct {
	// Removed lists attributes present before but gone now, with their old
	// values.
	Removed []AttrValue
	// Added lists attributes new to the extension, with their values.
	Added []AttrValue
	// Changed lists attributes present in both observations whose value
	// differs.
	Changed []AttrChange
}

type attrDeltaWire struct {
	Rem []AttrValue  `json:"rem"`
	Add []AttrValue  `json:"add"`
	Upd []AttrChange `json:"upd"`
}

// MarshalJSON implements json.Marshaler using the stored record keys
// (rem/add/upd). Nil slices are emitted as empty arrays.
func (d AttrDelta) MarshalJSON() ([]byte, error) {
	w := attrDeltaWire{Rem: d.Removed, Add: d.Added, Upd: d.Changed}
	if w.Rem == nil {
		w.Rem = []AttrValue{}
	}
	if w.Add == nil {
		w.Add = []AttrValue{}
	}
	if w.Upd == nil {
		w.Upd = []AttrChange{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Missing keys decode to empty
// lists so decoded deltas compare equal to freshly computed ones.
func (d *AttrDelta) UnmarshalJSON(data []byte) error {
	var w attrDeltaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.Removed, d.Added, d.Changed = w.Rem, w.Add, w.Upd
	if d.Removed == nil {
		d.Removed = []AttrValue{}
	}
	if d.Added == nil {
		d.Added = []AttrValue{}
	}
	if d.Changed == nil {
		d.Changed = []AttrChange{}
	}
	return nil
}

// Change is the delta between two extension sets. It is created transiently
// by Diff, serialized into the page's stored history, and never mutated
// after creation.
type Change struct {
	// Removed holds names present in the old set but absent in the new.
	Removed []string

	// Added maps names new to the set to their full attribute record.
	Added map[string]Extension

	// Updated maps names present in both sets, but with differing
	// attributes, to the per-attribute delta.
	Updated map[string]AttrDelta

	// Timestamp is the point in time the change was observed. The zero
	// value means unknown (reconstructed records without one).
	Timestamp time.Time
}

// NewChange returns an empty (no-op) change with initialized containers.
func NewChange() Change {
	return Change{
		Removed: []string{},
		Added:   map[string]Extension{},
		Updated: map[string]AttrDelta{},
	}
}

// IsNoop reports whether nothing actually changed. No-op changes must never
// be persisted.
func (c Change) IsNoop() bool {
	return len(c.Removed)+len(c.Added)+len(c.Updated) == 0
}

type changeWire struct {
	Rem []string             `json:"rem"`
	Add map[string]Extension `json:"add"`
	Upd map[string]AttrDelta `json:"upd"`
	Ts  *int64               `json:"ts"`
}

// MarshalJSON implements json.Marshaler. The wire form carries exactly four
// keys (rem/add/upd/ts); a zero timestamp is emitted as null.
func (c Change) MarshalJSON() ([]byte, error) {
	w := changeWire{Rem: c.Removed, Add: c.Added, Upd: c.Updated}
	if w.Rem == nil {
		w.Rem = []string{}
	}
	if w.Add == nil {
		w.Add = map[string]Extension{}
	}
	if w.Upd == nil {
		w.Upd = map[string]AttrDelta{}
	}
	if !c.Timestamp.IsZero() {
		ts := c.Timestamp.Unix()
		w.Ts = &ts
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Key order and missing keys are
// tolerated; a null or absent ts decodes to the zero time.
func (c *Change) UnmarshalJSON(data []byte) error {
	var w changeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.Removed, c.Added, c.Updated = w.Rem, w.Add, w.Upd
	if c.Removed == nil {
		c.Removed = []string{}
	}
	if c.Added == nil {
		c.Added = map[string]Extension{}
	}
	if c.Updated == nil {
		c.Updated = map[string]AttrDelta{}
	}
	c.Timestamp = time.Time{}
	if w.Ts != nil {
		c.Timestamp = time.Unix(*w.Ts, 0).UTC()
	}
	return nil
}

// String returns the compact JSON representation, mainly for debug logs.
func (c Change) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("changelog.Change(marshal error: %v)", err)
	}
	return string(data)
}
