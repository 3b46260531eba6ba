package config

import (
	"regexp"
	"strconv"
	"strings"
)

// PageReader is the slice of the wiki collaborator LoadWiki needs. The
// exists flag distinguishes a missing page from a read failure.
type PageReader interface {
	PageText(title string) (text string, exists bool, err error)
}

// firstTemplate matches the first template call on a page. Config pages
// hold a single flat {{...|key=value|...}} call; nested templates inside
// parameter values are not supported there.
var firstTemplate = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// LoadWiki replaces the configuration from the parameters of the first
// template call on the given page. Parameter values go through the usual
// auto-coercion; default keys the page leaves out are backfilled. A missing
// page is a *PageNotFoundError. A page without any template call leaves the
// configuration untouched.
func (c *Config) LoadWiki(reader PageReader, page string) error {
	text, exists, err := reader.PageText(page)
	if err != nil {
		return err
	}
	if !exists {
		return &PageNotFoundError{Script: c.Script, Page: page}
	}

	match := firstTemplate.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	params := map[string]Value{}
	segments := strings.Split(match[1], "|")
	positional := 0
	for _, segment := range segments[1:] { // segments[0] is the template name
		key, raw, ok := strings.Cut(segment, "=")
		if !ok {
			// Positional parameters get numeric names, like MediaWiki
			// assigns them.
			positional++
			params[strconv.Itoa(positional)] = Detect(strings.TrimSpace(segment))
			continue
		}
		params[strings.TrimSpace(key)] = Detect(strings.TrimSpace(raw))
	}

	c.values = params
	c.ensureDefaults()
	return nil
}
