package wiki

import (
	"fmt"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
)

// Walk implements Site: it runs a query with automatic continuation,
// calling each for every response batch. The anti-bot delay is inserted
// before every request after the first.
func (c *Client) Walk(p params.Values, each func(*jason.Object) error) error {
	query := c.mw.NewQuery(p)
	first := true
	for {
		if !first {
			c.sleep(c.delay)
		}
		if !query.Next() {
			break
		}
		first = false
		if err := each(query.Resp()); err != nil {
			return err
		}
	}
	if err := query.Err(); err != nil {
		return fmt.Errorf("paginated query: %w", err)
	}
	return nil
}

// Expand implements Site via the expandtemplates API.
func (c *Client) Expand(text, title string) (string, error) {
	p := params.Values{
		"action": "expandtemplates",
		"text":   text,
		"prop":   "wikitext",
	}
	if title != "" {
		p["title"] = title
	}
	resp, err := c.mw.Get(p)
	if err != nil {
		return "", fmt.Errorf("expandtemplates: %w", err)
	}
	expanded, err := resp.GetString("expandtemplates", "wikitext")
	if err != nil {
		return "", fmt.Errorf("expandtemplates: malformed response: %w", err)
	}
	return expanded, nil
}

// Parse implements Site: the rendered HTML of a page from the parse API.
func (c *Client) Parse(title string) (string, error) {
	resp, err := c.mw.Get(params.Values{
		"action":        "parse",
		"page":          title,
		"prop":          "text",
		"formatversion": "2",
	})
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", title, err)
	}
	text, err := resp.GetString("parse", "text")
	if err != nil {
		return "", fmt.Errorf("parse %q: malformed response: %w", title, err)
	}
	return text, nil
}

// Purge implements Site via the purge API. Purging is a write action and
// goes through POST.
func (c *Client) Purge(title string) error {
	if _, err := c.mw.Post(params.Values{
		"action": "purge",
		"titles": title,
	}); err != nil {
		return fmt.Errorf("purge %q: %w", title, err)
	}
	return nil
}
