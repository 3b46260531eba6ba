package scripts

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/antonholmquist/jason"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/config"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/wiki"
)

// summaryTimeFormat is the timestamp format used in edit summaries.
const summaryTimeFormat = "Mon, 02 Jan 2006 15:04:05 (UTC)"

// githubTimeFormat is the timestamp format of GitHub API responses.
const githubTimeFormat = "2006-01-02T15:04:05Z"

var mapViewerDefaults = map[string]config.Value{
	"template":  config.String("software infobox"),
	"wiki_page": config.String("Map viewers"),
}

// httpClient is replaceable in tests.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// viewerRelease is the most recent release of one map viewer, parsed from
// its release source.
type viewerRelease struct {
	Name string

	// RawVersion is the version exactly as the source spells it. Semver
	// normalizes "1.16" to "1.16.0", but the infobox should carry the
	// source's spelling.
	RawVersion string

	Version *semver.Version

	// URL links to the release, when the source provides one.
	URL string

	// Date is the release timestamp in summaryTimeFormat, when available.
	Date string
}

// MapViewerVersions checks the release source of each map viewer configured
// for the script and bumps its infobox version parameter on the overview
// page when the source has a strictly newer release.
func MapViewerVersions(run *bot.Run) error {
	run.Logger.Info("Started mapviewerversions.")

	cfg := config.New(run.Script, mapViewerDefaults)
	if err := loadConfig(run, cfg); err != nil {
		return err
	}
	templateName, err := cfg.Text("template")
	if err != nil {
		return err
	}
	pageName, err := cfg.Text("wiki_page")
	if err != nil {
		return err
	}

	pageText, err := wiki.ReadPage(run.Logger, run.Site, pageName)
	if err != nil {
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("reading %q failed", pageName)}
	}

	// All remaining config keys are viewer name to release URL pairs. The
	// page text is threaded through the viewers so their updates don't
	// override each other; each successful bump is saved separately.
	for _, key := range cfg.Keys() {
		if key == "template" || key == "wiki_page" {
			continue
		}
		releaseURL, err := cfg.Text(key)
		if err != nil {
			run.Logger.Debug(fmt.Sprintf("Skipped config key %q: %v", key, err))
			continue
		}
		run.Logger.Info(fmt.Sprintf("== %s ==", key))

		release := fetchLatestRelease(run, key, releaseURL)
		if release == nil {
			continue
		}

		updated, changed := bumpViewerVersion(run, pageText, templateName, release)
		if !changed {
			continue
		}

		saved := wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
			Title:    pageName,
			Text:     updated,
			Summary:  viewerUpdateSummary(run, release),
			Minor:    true,
			PrevText: pageText,
		})
		if saved || run.DryRun {
			pageText = updated
		}
	}
	return nil
}

// fetchLatestRelease requests the viewer's release URL and dispatches to
// the parser for its host. Failures are non-fatal; the viewer is skipped
// with a warning.
func fetchLatestRelease(run *bot.Run, name, releaseURL string) *viewerRelease {
	skipHead := ghactions.Head(fmt.Sprintf("Did not check %q", name))

	parsed, err := url.Parse(releaseURL)
	if err != nil || parsed.Hostname() != "api.github.com" {
		// GitHub releases are the only supported source at the moment.
		run.Logger.Warn(fmt.Sprintf(
			"Skipped the map viewer because there's no function for parsing the data from its URL %q.",
			releaseURL), skipHead)
		return nil
	}

	resp, err := httpClient.Get(releaseURL)
	if err != nil {
		run.Logger.Warn(fmt.Sprintf(
			"Skipped the map viewer because requesting its URL %q failed: %v.", releaseURL, err),
			skipHead)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		run.Logger.Warn(fmt.Sprintf(
			"Skipped the map viewer because requesting its URL %q returned %s.",
			releaseURL, resp.Status), skipHead)
		return nil
	}

	body, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		run.Logger.Warn(fmt.Sprintf(
			"Skipped the map viewer because its URL %q returned malformed JSON: %v.",
			releaseURL, err), skipHead)
		return nil
	}

	release, err := parseGitHubRelease(name, body)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Couldn't parse the release data from GitHub: %v", err))
		run.Logger.Warn("Skipped this map viewer.",
			skipHead,
			ghactions.Body("Skipped it because version parsing was unsuccessful; check the logs for details."))
		return nil
	}
	return release
}

// parseGitHubRelease extracts the release info from a GitHub latest-release
// API response.
func parseGitHubRelease(name string, body *jason.Object) (*viewerRelease, error) {
	tag, err := body.GetString("tag_name")
	if err != nil {
		return nil, fmt.Errorf("release has no tag_name: %w", err)
	}
	raw := strings.TrimSpace(tag)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "v"), "V")

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parse version string %q: %w", raw, err)
	}

	release := &viewerRelease{Name: name, RawVersion: raw, Version: version}
	if htmlURL, err := body.GetString("html_url"); err == nil {
		release.URL = htmlURL
	}
	if publishedAt, err := body.GetString("published_at"); err == nil {
		if t, err := time.Parse(githubTimeFormat, publishedAt); err == nil {
			release.Date = t.UTC().Format(summaryTimeFormat)
		} else {
			release.Date = publishedAt
		}
	}
	return release, nil
}

// versionParam matches the version parameter inside a template block, with
// the value as the second group.
var versionParam = regexp.MustCompile(`(\|\s*version\s*=\s*)([^|}\n]*)`)

// bumpViewerVersion updates the viewer's infobox version parameter in the
// page text. It returns the updated text and whether anything changed.
func bumpViewerVersion(run *bot.Run, text, templateName string, release *viewerRelease) (string, bool) {
	skipHead := ghactions.Head(fmt.Sprintf("Did not check %q", release.Name))

	start, end, ok := findViewerTemplate(text, templateName, release.Name)
	if !ok {
		run.Logger.Warn("Skipped this map viewer due to missing suitable template transclusion.",
			skipHead,
			ghactions.Body(fmt.Sprintf(
				"Skipped it because no suitable transclusion of {{%s}} could be found on the page.",
				templateName)))
		return text, false
	}
	block := text[start:end]

	match := versionParam.FindStringSubmatchIndex(block)
	if match == nil {
		return text, false
	}
	currentRaw := strings.TrimSpace(block[match[4]:match[5]])
	run.Logger.Info(fmt.Sprintf("Parameter currently: version=%s", currentRaw))

	currentVersion, err := semver.NewVersion(currentRaw)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Couldn't parse the current version string %q: %v", currentRaw, err))
		run.Logger.Warn("Skipped this map viewer.",
			skipHead,
			ghactions.Body("Skipped it because version parsing was unsuccessful; check the logs for details."))
		return text, false
	}

	run.Logger.Info(fmt.Sprintf("Current version: %s", currentVersion))
	run.Logger.Info(fmt.Sprintf("New version: %s", release.Version))

	if !release.Version.GreaterThan(currentVersion) {
		run.Logger.Info(fmt.Sprintf(
			"Skipped the map viewer because the new version %s is not greater than the current version %s.",
			release.Version, currentVersion),
			ghactions.Head(fmt.Sprintf("%q version is up to date", release.Name)))
		return text, false
	}

	updatedBlock := block[:match[4]] + release.RawVersion + block[match[5]:]
	run.Logger.Info(fmt.Sprintf("Parameter after replacement: version=%s", release.RawVersion))
	return text[:start] + updatedBlock + text[end:], true
}

// findViewerTemplate locates the transclusion of the infobox template whose
// name parameter matches the viewer, returning the block's bounds. Template
// blocks are matched with brace counting since parameter values may contain
// nested transclusions.
func findViewerTemplate(text, templateName, viewerName string) (start, end int, ok bool) {
	nameParam := regexp.MustCompile(`\|\s*name\s*=\s*` + regexp.QuoteMeta(viewerName) + `\s*[|}\n]`)

	offset := 0
	for {
		idx := indexTemplateStart(text[offset:], templateName)
		if idx < 0 {
			return 0, 0, false
		}
		start = offset + idx
		end = matchingBraceEnd(text, start)
		if end < 0 {
			return 0, 0, false
		}
		block := text[start:end]
		if nameParam.MatchString(block) && versionParam.MatchString(block) {
			return start, end, true
		}
		offset = end
	}
}

// indexTemplateStart finds the next "{{templateName" occurrence, matching
// the first letter case-insensitively the way MediaWiki resolves template
// names.
func indexTemplateStart(text, templateName string) int {
	for offset := 0; ; {
		idx := strings.Index(text[offset:], "{{")
		if idx < 0 {
			return -1
		}
		pos := offset + idx
		rest := text[pos+2:]
		if len(rest) >= len(templateName) && strings.EqualFold(rest[:len(templateName)], templateName) {
			return pos
		}
		offset = pos + 2
	}
}

// matchingBraceEnd returns the index just past the "}}" closing the
// template that opens at start, or -1 if the braces never balance.
func matchingBraceEnd(text string, start int) int {
	depth := 0
	for i := start; i < len(text)-1; i++ {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			depth++
			i++
		case text[i] == '}' && text[i+1] == '}':
			depth--
			i++
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// viewerUpdateSummary builds the edit summary for one viewer bump; the
// release date and link are included when available.
func viewerUpdateSummary(run *bot.Run, release *viewerRelease) string {
	summary := fmt.Sprintf("[[User:%s/bot/scripts/mapviewerversions|Updated]] version of %s to %s",
		run.Site.Username(), release.Name, release.RawVersion)
	switch {
	case release.Date != "" && release.URL != "":
		summary += fmt.Sprintf(" (most recent version as of %s, see %s)", release.Date, release.URL)
	case release.Date != "":
		summary += fmt.Sprintf(" (most recent version as of %s)", release.Date)
	case release.URL != "":
		summary += fmt.Sprintf(" (see %s)", release.URL)
	}
	return run.Summary(summary + ".")
}
