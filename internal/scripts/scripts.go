// Package scripts holds the maintenance scripts the bot can run. Each
// script is a self-contained function over a run context; the registry
// maps the public script names to them.
package scripts

import (
	"fmt"
	"slices"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/config"
)

// Func is the entry point of one script.
type Func func(*bot.Run) error

var registry = map[string]Func{
	"extensionupdates":  ExtensionUpdates,
	"capsredirects":     CapsRedirects,
	"excludata":         ExcluData,
	"iteminfodata":      ItemInfoData,
	"langinfodata":      LangInfoData,
	"mapviewerversions": MapViewerVersions,
	"npcinfodata":       NPCInfoData,
	"testscript":        TestScript,
}

// Names returns all registered script names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the script registered under name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// RuntimeError is a fatal script failure. The details have already been
// logged when it is raised; the message is a short classification.
type RuntimeError struct {
	Script string
	Reason string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("script %q failed: %s", e.Script, e.Reason)
	}
	return fmt.Sprintf("script %q failed", e.Script)
}

// configPage is the standard location of a script's configuration page.
func configPage(run *bot.Run) string {
	return fmt.Sprintf("User:%s/bot/scripts/%s/config", run.Site.Username(), run.Script)
}

// loadConfig fills cfg from the command-line override when one was given,
// and from the script's on-wiki configuration page otherwise.
func loadConfig(run *bot.Run, cfg *config.Config) error {
	if run.ConfigOverride != "" {
		cfg.LoadString(run.ConfigOverride)
		run.Logger.Debug(fmt.Sprintf("Configuration from override: %s", cfg))
		return nil
	}
	if err := cfg.LoadWiki(run.Site, configPage(run)); err != nil {
		return err
	}
	run.Logger.Debug(fmt.Sprintf("Configuration from wiki: %s", cfg))
	return nil
}
