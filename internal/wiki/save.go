package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/stopwatch"
)

// Edit implements Site.
func (c *Client) Edit(title, text, summary string, minor bool) (int64, error) {
	token, err := c.mw.GetToken(mwclient.CSRFToken)
	if err != nil {
		return 0, fmt.Errorf("edit %q: %w", title, err)
	}

	p := params.Values{
		"action":  "edit",
		"title":   title,
		"text":    text,
		"summary": summary,
		"bot":     "1",
		"token":   token,
	}
	if minor {
		p["minor"] = "1"
	}

	resp, err := c.mw.Post(p)
	if err != nil {
		return 0, err
	}
	// A save that changed nothing reports Success without a newrevid.
	revID, err := resp.GetInt64("edit", "newrevid")
	if err != nil {
		return 0, nil
	}
	return revID, nil
}

// protectedCodes are the API error codes for a save rejected by page
// protection. They are handled as a non-fatal skip, distinct from generic
// save failures.
var protectedCodes = map[string]bool{
	"protectedpage":      true,
	"protectedtitle":     true,
	"protectednamespace": true,
	"cascadeprotected":   true,
	"customcssprotected": true,
	"customjsprotected":  true,
}

// IsProtected reports whether err is a save rejection due to page
// protection.
func IsProtected(err error) bool {
	var apiErr mwclient.APIError
	if errors.As(err, &apiErr) {
		return protectedCodes[apiErr.Code]
	}
	return false
}

// SaveOptions describe one page save.
type SaveOptions struct {
	Title   string
	Text    string
	Summary string
	Minor   bool

	// PrevText is the page text before the change, used for the character
	// diff in dry-run output and the debug-level diff preview.
	PrevText string
}

// Save writes a page, honoring dry-run mode. Failures are non-fatal: a
// protected page and any other save error are logged with a distinct
// classification and reported via the saved return value, matching the
// "log and skip" contract for writes.
func Save(logger *slog.Logger, site Site, dryRun bool, opts SaveOptions) (saved bool) {
	if dryRun {
		logger.Info(fmt.Sprintf(
			"Would save page %q (%d characters, %+d diff) with summary %q.",
			opts.Title, len(opts.Text), len(opts.Text)-len(opts.PrevText), opts.Summary))
		if logger.Enabled(context.Background(), slog.LevelDebug) && opts.PrevText != opts.Text {
			dmp := diffmatchpatch.New()
			diffs := dmp.DiffMain(opts.PrevText, opts.Text, false)
			logger.Debug("Dry-run diff preview:\n" + dmp.DiffPrettyText(diffs))
		}
		return false
	}

	warning := fmt.Sprintf("Did not save the page %q", opts.Title)
	watch := stopwatch.New()

	revID, err := site.Edit(opts.Title, opts.Text, opts.Summary, opts.Minor)
	switch {
	case IsProtected(err):
		var apiErr mwclient.APIError
		errors.As(err, &apiErr)
		logger.Warn(
			fmt.Sprintf("Editing the page %q is not allowed (error code: %q), skipped it.",
				opts.Title, apiErr.Code),
			ghactions.Head(warning),
			ghactions.Body("Couldn't save the page because it is protected: "+apiErr.Info))
		return false
	case err != nil:
		logger.Error(fmt.Sprintf("Error while saving %q: %v", opts.Title, err))
		logger.Warn(fmt.Sprintf("Skipped page %q due to error.", opts.Title),
			ghactions.Head(warning),
			ghactions.Body("Couldn't save the page due to some error; check the logs for details."))
		return false
	}

	watch.Stop()
	diffLink := "None"
	if revID != 0 {
		diffLink = site.DiffURL(revID)
	}
	logger.Info(fmt.Sprintf("Saved page %q with summary %q. Diff: %s. Time: %s",
		opts.Title, opts.Summary, diffLink, watch))
	return true
}
