// Package wiki wraps the MediaWiki API client behind the small surface the
// scripts need: page reads and writes, template expansion, paginated
// queries, and the siteinfo extension listing. It also owns the anti-bot
// pacing between successive API calls.
package wiki

import (
	"fmt"
	"strings"
	"time"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/mowbray/fieldbot/internal/changelog"
)

// CloudflareSafetyDelay is the pause between successive paginated API
// requests. The CDN in front of the wiki farm answers rapid request bursts
// with a human-verification challenge and HTTP 429, so bulk queries are
// paced well below that threshold.
const CloudflareSafetyDelay = 8 * time.Second

// Site is the wiki collaborator surface the scripts program against. The
// concrete implementation is *Client; tests substitute fakes.
type Site interface {
	// PageText returns the page's current wikitext and whether the page
	// exists.
	PageText(title string) (text string, exists bool, err error)

	// Edit saves new page text and returns the new revision id, or 0 when
	// the save was a no-op.
	Edit(title, text, summary string, minor bool) (revID int64, err error)

	// Expand runs server-side template expansion of the given wikitext, in
	// the context of the given page title.
	Expand(text, title string) (string, error)

	// Parse returns the page's rendered HTML.
	Parse(title string) (string, error)

	// Purge refreshes the server-side render cache of the page.
	Purge(title string) error

	// Extensions returns the currently installed extensions from siteinfo.
	Extensions() (changelog.ExtensionSet, error)

	// Walk runs a paginated query, invoking each for every response batch,
	// with the anti-bot delay between batches.
	Walk(p params.Values, each func(*jason.Object) error) error

	// Username returns the logged-in user's name.
	Username() string

	// WikiID returns the wiki's id from siteinfo (e.g. "terraria").
	WikiID() string

	// DiffURL returns a link to the diff view of a revision.
	DiffURL(revID int64) string
}

// Client implements Site on top of a live API connection.
type Client struct {
	mw       *mwclient.Client
	apiURL   string
	wikiID   string
	username string

	delay time.Duration
	sleep func(time.Duration)
}

// Connect creates an API client for the given api.php URL. No login is
// performed; see Login.
func Connect(apiURL, userAgent string) (*Client, error) {
	mw, err := mwclient.New(apiURL, userAgent)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", apiURL, err)
	}
	return &Client{
		mw:     mw,
		apiURL: apiURL,
		delay:  CloudflareSafetyDelay,
		sleep:  time.Sleep,
	}, nil
}

// Username implements Site.
func (c *Client) Username() string { return c.username }

// WikiID implements Site.
func (c *Client) WikiID() string { return c.wikiID }

// DiffURL implements Site. The diff view lives next to api.php on every
// MediaWiki installation.
func (c *Client) DiffURL(revID int64) string {
	base := strings.TrimSuffix(c.apiURL, "api.php")
	return fmt.Sprintf("%sindex.php?diff=%d", base, revID)
}
