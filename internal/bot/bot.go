// Package bot carries the per-invocation context that scripts run
// against: the wiki connection, the dry-run flag, the logger, and the
// identification suffix appended to edit summaries.
package bot

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/wiki"
)

// summaryLimit is MediaWiki's maximum edit summary length in characters.
const summaryLimit = 500

// Run is the context of one script invocation. It is created once by the
// CLI and passed to the script; scripts hold no global state.
type Run struct {
	// Script is the registered name of the running script.
	Script string

	// DryRun suppresses all page writes when set.
	DryRun bool

	// Site is the wiki the script operates on.
	Site wiki.Site

	Logger *slog.Logger

	// Suffix is appended to every edit summary so runs can be traced back
	// to the invocation that produced them.
	Suffix string

	// ConfigOverride, when non-empty, replaces the script's on-wiki
	// configuration with a flat "|key=value|..." string.
	ConfigOverride string
}

// NewRun assembles a run context with a fresh identification suffix.
func NewRun(logger *slog.Logger, site wiki.Site, script string, dryRun bool) *Run {
	return &Run{
		Script: script,
		DryRun: dryRun,
		Site:   site,
		Logger: logger,
		Suffix: fmt.Sprintf("  »ID:%s«", NewRunID()),
	}
}

// NewRunID returns the CI run id when running in a workflow, otherwise a
// random UUID.
func NewRunID() string {
	if id := ghactions.RunID(); id != "" {
		return id
	}
	return uuid.NewString()
}

// Summary builds the edit summary for a save: the core text plus the run
// suffix, truncated to the wiki's limit. The core is cut with an ellipsis
// to make room for the suffix; if the suffix would leave fewer than four
// characters of core, the suffix is dropped instead.
func (r *Run) Summary(core string) string {
	full := core + r.Suffix
	if utf8.RuneCountInString(full) <= summaryLimit {
		return full
	}

	room := summaryLimit - utf8.RuneCountInString(r.Suffix) - 3
	coreRunes := []rune(core)
	if room < 4 {
		return string(coreRunes[:summaryLimit-3]) + "..."
	}
	return string(coreRunes[:room]) + "..." + r.Suffix
}
