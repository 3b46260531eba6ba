package scripts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/wiki"
)

const capsRedirectsOutputPage = "User:Rye Greenwood/util/Capitalization redirects"

// redirectInfo pairs a redirect page with its target.
type redirectInfo struct {
	Title  string
	Target string
}

// CapsRedirects compiles a report of all mainspace redirects whose title is
// a pure capitalization variant of their target, and writes it as a sortable
// HTML table to the output page.
func CapsRedirects(run *bot.Run) error {
	run.Logger.Info("Started capsredirects.")
	summary := run.Summary(fmt.Sprintf(
		"[[User:%s/bot/scripts/capsredirects|Updated]].", run.Site.Username()))

	redirects, err := fetchRedirects(run)
	if err != nil {
		return err
	}
	targets, err := fetchRedirectTargets(run)
	if err != nil {
		return err
	}

	info := make(map[int64]*redirectInfo, len(redirects))
	for id, title := range redirects {
		info[id] = &redirectInfo{Title: title}
	}
	for id, target := range targets {
		if entry, ok := info[id]; ok {
			entry.Target = target
		} else {
			run.Logger.Debug(fmt.Sprintf(
				"Redirect page ID %d not found in list from \"allredirects\".", id))
		}
	}

	filtered := filterCapitalizationRedirects(info)
	output := capsRedirectsReport(filtered, len(info), time.Now().UTC())

	prev, _, err := run.Site.PageText(capsRedirectsOutputPage)
	if err != nil {
		prev = ""
	}
	wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
		Title:    capsRedirectsOutputPage,
		Text:     output,
		Summary:  summary,
		Minor:    true,
		PrevText: prev,
	})
	return nil
}

// fetchRedirects returns all mainspace redirect page ids and their titles.
func fetchRedirects(run *bot.Run) (map[int64]string, error) {
	redirects := map[int64]string{}
	run.Logger.Info("Fetching redirects...")

	err := run.Site.Walk(params.Values{
		"generator":     "allredirects",
		"garnamespace":  "0",
		"garlimit":      "max",
		"prop":          "info",
		"formatversion": "2",
	}, func(resp *jason.Object) error {
		pages, err := resp.GetObjectArray("query", "pages")
		if err != nil {
			return fmt.Errorf("allredirects generator: malformed response: %w", err)
		}
		for _, page := range pages {
			ns, err := page.GetInt64("ns")
			if err != nil || ns != 0 {
				continue
			}
			id, err := page.GetInt64("pageid")
			if err != nil {
				continue
			}
			title, err := page.GetString("title")
			if err != nil {
				continue
			}
			redirects[id] = title
		}
		run.Logger.Info(fmt.Sprintf("%d fetched so far.", len(redirects)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	run.Logger.Info(fmt.Sprintf("Fetched all %d redirects.", len(redirects)))
	return redirects, nil
}

// fetchRedirectTargets returns the target page title for each redirect
// page id.
func fetchRedirectTargets(run *bot.Run) (map[int64]string, error) {
	targets := map[int64]string{}
	run.Logger.Info("Fetching the targets of all redirects...")

	err := run.Site.Walk(params.Values{
		"list":          "allredirects",
		"arnamespace":   "0",
		"arlimit":       "max",
		"arprop":        "ids|title",
		"formatversion": "2",
	}, func(resp *jason.Object) error {
		entries, err := resp.GetObjectArray("query", "allredirects")
		if err != nil {
			return fmt.Errorf("allredirects list: malformed response: %w", err)
		}
		for _, entry := range entries {
			id, err := entry.GetInt64("fromid")
			if err != nil {
				continue
			}
			title, err := entry.GetString("title")
			if err != nil {
				continue
			}
			targets[id] = title
		}
		run.Logger.Info(fmt.Sprintf("%d fetched so far.", len(targets)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	run.Logger.Info(fmt.Sprintf("Fetched the targets of %d redirects.", len(targets)))
	return targets, nil
}

// filterCapitalizationRedirects keeps the redirects whose title equals
// their target modulo capitalization.
func filterCapitalizationRedirects(info map[int64]*redirectInfo) []redirectInfo {
	var filtered []redirectInfo
	for _, entry := range info {
		if entry.Target == "" {
			continue
		}
		if strings.EqualFold(entry.Title, entry.Target) {
			filtered = append(filtered, *entry)
		}
	}
	return filtered
}

// capsRedirectsReport renders the report page: an intro line and a sortable
// table of redirect/target pairs, ordered by redirect title.
func capsRedirectsReport(redirects []redirectInfo, total int, now time.Time) string {
	coll := collate.New(language.English)
	slices.SortFunc(redirects, func(a, b redirectInfo) int {
		if c := coll.CompareString(a.Title, b.Title); c != 0 {
			return c
		}
		return coll.CompareString(a.Target, b.Target)
	})

	rows := make([]string, 0, len(redirects))
	for _, entry := range redirects {
		rows = append(rows, fmt.Sprintf(
			"<tr>"+
				"<td>%[1]s {{dotlist|inline=y|class=small|paren=y"+
				"|[[Special:PageHistory/%[1]s|hist]]"+
				"|[[Special:WhatLinksHere/%[1]s|links]]"+
				"}}</td>"+
				"<td>→</td>"+
				"<td>[[%[2]s]]</td>"+
				"</tr>",
			entry.Title, entry.Target))
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"The following %d redirects (out of %d total) in mainspace are "+
			"capitalization variants of their respective target page. The data "+
			"was generated on %s.\n\n",
		len(rows), total, now.Format("02 January 2006, 15:04:05")+" (UTC)")
	b.WriteString("<table class=\"terraria sortable\">\n")
	b.WriteString("<tr><th>Redirect</th><th class=\"unsortable\"></th><th>Target</th></tr>\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n</table>")
	return b.String()
}
