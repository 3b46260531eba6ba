package changelog

import (
	"maps"
	"slices"
)

// Diff compares two extension sets and returns a Change describing exactly
// the difference. Identical sets yield a no-op change.
//
// Persisted order is deterministic (names and attribute keys sorted) so that
// serialization round-trips are stable; the order carries no meaning.
func Diff(old, new ExtensionSet) Change {
	result := NewChange()

	if slices.EqualFunc(old, new, func(a, b Extension) bool { return maps.Equal(a, b) }) {
		return result
	}

	oldByName := byName(old)
	newByName := byName(new)

	for _, name := range sortedKeys(oldByName) {
		if _, ok := newByName[name]; !ok {
			result.Removed = append(result.Removed, name)
		}
	}

	for _, name := range sortedKeys(newByName) {
		ext := newByName[name]
		prev, ok := oldByName[name]
		if !ok {
			result.Added[name] = ext.Clone()
			continue
		}
		if maps.Equal(prev, ext) {
			continue
		}
		delta := AttrDelta{
			Removed: []AttrValue{},
			Added:   []AttrValue{},
			Changed: []AttrChange{},
		}
		for _, attr := range sortedKeys(prev) {
			if _, ok := ext[attr]; !ok {
				delta.Removed = append(delta.Removed, AttrValue{attr, prev[attr]})
			}
		}
		for _, attr := range sortedKeys(ext) {
			val := ext[attr]
			prevVal, ok := prev[attr]
			switch {
			case !ok:
				delta.Added = append(delta.Added, AttrValue{attr, val})
			case prevVal != val:
				delta.Changed = append(delta.Changed, AttrChange{attr, prevVal, val})
			}
		}
		result.Updated[name] = delta
	}

	return result
}

// byName indexes a set by extension name. Later duplicates win, matching the
// "unique by name" invariant.
func byName(set ExtensionSet) map[string]Extension {
	index := make(map[string]Extension, len(set))
	for _, ext := range set {
		index[ext.Name()] = ext
	}
	return index
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
