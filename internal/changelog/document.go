package changelog

import (
	"regexp"
	"strings"
)

// Document adapts a wiki page's markup to the change history stored inside
// it. It owns the two structural operations the history needs: scanning the
// encoded record comments out of the markup, and inserting a new rendered
// entry at the top of the visible list.
//
// Visible entries accumulate newest-at-top, so the replay order (oldest
// first) is obtained by scanning the comments bottom-up, not by visual
// position.
type Document struct {
	text string
}

// recordComment matches one stored change comment. The payload may span
// multiple lines due to the 76-column wrap. The capture is deliberately
// unrestricted: a comment carrying the record marker is a record, and if its
// payload is garbage the decoder must see it and fail rather than the scan
// quietly dropping it.
var recordComment = regexp.MustCompile(`(?s)<!--!<~>(.*?)-->`)

// sectionHeading matches a wikitext section heading line like "== Foo ==".
var sectionHeading = regexp.MustCompile(`(?m)^={1,6}[^=\n][^\n]*={1,6} *$`)

// NewDocument wraps the given page markup.
func NewDocument(text string) *Document {
	return &Document{text: text}
}

// Text returns the current markup.
func (d *Document) Text() string { return d.text }

// Records returns the raw encoded record payloads, oldest first (reverse
// document order).
func (d *Document) Records() []string {
	matches := recordComment.FindAllStringSubmatch(d.text, -1)
	records := make([]string, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		records = append(records, matches[i][1])
	}
	return records
}

// History decodes all stored records, oldest first. The first undecodable
// record aborts with its *SyntaxError; a partially read history must not be
// used.
func (d *Document) History() ([]Change, error) {
	records := d.Records()
	changes := make([]Change, 0, len(records))
	for _, record := range records {
		change, err := Decode(record)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// Reconstruct replays the full stored history and returns the extension set
// as of the most recently recorded change.
func (d *Document) Reconstruct() (ExtensionSet, error) {
	history, err := d.History()
	if err != nil {
		return nil, err
	}
	return Replay(history), nil
}

// Insert places the rendered fragment immediately before the first existing
// section heading, so the newest entry tops the visible list. Markup without
// any heading gets the fragment appended instead.
func (d *Document) Insert(fragment string) {
	loc := sectionHeading.FindStringIndex(d.text)
	if loc == nil {
		if d.text != "" && !strings.HasSuffix(d.text, "\n") {
			d.text += "\n"
		}
		d.text += fragment
		return
	}
	d.text = d.text[:loc[0]] + fragment + d.text[loc[0]:]
}
