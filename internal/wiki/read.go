package wiki

import (
	"fmt"
	"log/slog"

	"cgt.name/pkg/go-mwclient/params"

	"github.com/mowbray/fieldbot/internal/ghactions"
)

// PageText implements Site. A missing page is not an error; the exists
// flag distinguishes it.
func (c *Client) PageText(title string) (string, bool, error) {
	resp, err := c.mw.Get(params.Values{
		"action":        "query",
		"titles":        title,
		"prop":          "revisions",
		"rvprop":        "content",
		"rvslots":       "main",
		"formatversion": "2",
	})
	if err != nil {
		return "", false, fmt.Errorf("read %q: %w", title, err)
	}

	pages, err := resp.GetObjectArray("query", "pages")
	if err != nil || len(pages) == 0 {
		return "", false, fmt.Errorf("read %q: malformed query response: %w", title, err)
	}
	page := pages[0]

	if missing, err := page.GetBoolean("missing"); err == nil && missing {
		return "", false, nil
	}
	if invalid, err := page.GetBoolean("invalid"); err == nil && invalid {
		reason, _ := page.GetString("invalidreason")
		return "", false, fmt.Errorf("read %q: invalid title: %s", title, reason)
	}

	revisions, err := page.GetObjectArray("revisions")
	if err != nil || len(revisions) == 0 {
		return "", false, fmt.Errorf("read %q: no readable revision: %w", title, err)
	}
	text, err := revisions[0].GetString("slots", "main", "content")
	if err != nil {
		return "", false, fmt.Errorf("read %q: no main slot content: %w", title, err)
	}
	return text, true, nil
}

// ReadPage fetches a page that the calling script requires to exist,
// logging failures with a CI-friendly head/body classification. Both a
// read error and a missing page are failures here.
func ReadPage(logger *slog.Logger, site Site, title string) (string, error) {
	text, exists, err := site.PageText(title)
	if err != nil {
		logger.Error(fmt.Sprintf("Error while reading %q: %v", title, err),
			ghactions.Head(fmt.Sprintf("Reading %q failed", title)),
			ghactions.Body("Couldn't fetch the page due to some error; check the logs for details."))
		return "", err
	}
	if !exists {
		err := fmt.Errorf("read %q: page does not exist", title)
		logger.Error(err.Error(),
			ghactions.Head(fmt.Sprintf("Reading %q failed", title)),
			ghactions.Body("The page does not exist."))
		return "", err
	}
	return text, nil
}
