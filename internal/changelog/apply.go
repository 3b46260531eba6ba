package changelog

import "slices"

// Apply applies the change to a set of extensions and returns the new set.
// The input is not modified.
//
// Per-extension attribute edits are applied in the literal order removed,
// then added, then changed-value overwrite. An attribute appearing in both
// the removed and added lists of the same delta is an inconsistency in the
// stored record; Apply deliberately does not guard against it and lets the
// later list win, preserving the historical storage semantics.
func (c Change) Apply(extensions ExtensionSet) ExtensionSet {
	result := make(ExtensionSet, 0, len(extensions)+len(c.Added))
	for _, ext := range extensions {
		if slices.Contains(c.Removed, ext.Name()) {
			continue
		}
		next := ext.Clone()
		if delta, ok := c.Updated[ext.Name()]; ok {
			for _, attr := range delta.Removed {
				delete(next, attr.Name)
			}
			for _, attr := range delta.Added {
				next[attr.Name] = attr.Value
			}
			for _, attr := range delta.Changed {
				next[attr.Name] = attr.New
			}
		}
		result = append(result, next)
	}
	for _, name := range sortedKeys(c.Added) {
		result = append(result, c.Added[name].Clone())
	}
	return result
}

// Replay folds a sequence of changes, oldest first, over an empty set and
// returns the reconstructed extension set as of the newest change.
func Replay(changes []Change) ExtensionSet {
	extensions := ExtensionSet{}
	for _, change := range changes {
		extensions = change.Apply(extensions)
	}
	return extensions
}
