package changelog

import (
	"fmt"
	"strings"
)

// headingFormat renders the observation date, e.g. "== September 05, 2023 ==".
const headingDateLayout = "January 02, 2006"

// Render produces the wiki markup fragment for one change: a dated section
// heading, the encoded record comment, then human-readable bullet points.
// The fragment ends with a blank line so consecutive entries stay separated.
func Render(c Change) (string, error) {
	var lines []string

	heading := "Unknown date"
	if !c.Timestamp.IsZero() {
		heading = c.Timestamp.UTC().Format(headingDateLayout)
	}
	lines = append(lines, fmt.Sprintf("== %s ==", heading))

	comment, err := EncodeComment(c)
	if err != nil {
		return "", err
	}
	lines = append(lines, comment)

	if len(c.Added) > 0 {
		lines = append(lines, "* New: "+strings.Join(sortedKeys(c.Added), ", "))
	}
	if len(c.Removed) > 0 {
		lines = append(lines, "* Removed: "+strings.Join(c.Removed, ", "))
	}
	if len(c.Updated) > 0 {
		lines = append(lines, "* Changed:")
		for _, name := range sortedKeys(c.Updated) {
			delta := c.Updated[name]
			for _, attr := range delta.Changed {
				lines = append(lines, fmt.Sprintf(
					"** %s <code>%s</code>: \"%s\" → \"%s\"", name, attr.Name, attr.Old, attr.New))
			}
			for _, attr := range delta.Added {
				lines = append(lines, fmt.Sprintf("** %s <code>%s</code> added", name, attr.Name))
			}
			for _, attr := range delta.Removed {
				lines = append(lines, fmt.Sprintf(
					"** %s <code>%s</code> removed (was \"%s\")", name, attr.Name, attr.Value))
			}
		}
	}

	return strings.Join(lines, "\n") + "\n\n", nil
}
