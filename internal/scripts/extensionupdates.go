package scripts

import (
	"errors"
	"fmt"
	"time"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/changelog"
	"github.com/mowbray/fieldbot/internal/config"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/wiki"
)

var extensionUpdatesDefaults = map[string]config.Value{
	"wiki_page": config.String("User:Rye Greenwood/util/Wiki extension updates"),
}

// ExtensionUpdates keeps a wiki page with a timeline of changes to the
// wiki's installed extensions. The page carries its own machine-readable
// change history in encoded comments; each run reconstructs the previously
// recorded extension set from that history, diffs it against the live
// siteinfo, and prepends a new dated entry when something changed.
func ExtensionUpdates(run *bot.Run) error {
	run.Logger.Info("Started extensionupdates.")
	summary := run.Summary(fmt.Sprintf(
		"[[User:%s/bot/scripts/extensionupdates|Updated]].", run.Site.Username()))

	cfg := config.New(run.Script, extensionUpdatesDefaults)
	if err := loadConfig(run, cfg); err != nil {
		return err
	}
	pageName, err := cfg.Text("wiki_page")
	if err != nil {
		return err
	}

	extensionsToday, err := run.Site.Extensions()
	if err != nil {
		run.Logger.Warn(fmt.Sprintf("Couldn't fetch extension information: %v", err),
			ghactions.Head("Extension information unavailable"),
			ghactions.Body("No information about installed extensions can be obtained from the wiki at the moment."))
		return nil
	}

	pageText, err := wiki.ReadPage(run.Logger, run.Site, pageName)
	if err != nil {
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("reading %q failed", pageName)}
	}
	doc := changelog.NewDocument(pageText)

	extensionsCached, err := doc.Reconstruct()
	if err != nil {
		var syntaxErr *changelog.SyntaxError
		if errors.As(err, &syntaxErr) {
			run.Logger.Error(fmt.Sprintf("Syntax error in a change string: %v", err),
				ghactions.Head("Error during page parsing"),
				ghactions.Body("The page has unexpected contents; please make sure it has not been altered manually."))
			return &RuntimeError{Script: run.Script, Reason: "stored change history is unreadable"}
		}
		return err
	}

	change := changelog.Diff(extensionsCached, extensionsToday)
	change.Timestamp = time.Now().UTC()
	run.Logger.Debug(change.String())

	if change.IsNoop() {
		run.Logger.Info("No changes to be made.",
			ghactions.Head("No changes"),
			ghactions.Body("The page appears to be up-to-date."))
		return nil
	}

	fragment, err := changelog.Render(change)
	if err != nil {
		return err
	}
	doc.Insert(fragment)
	run.Logger.Debug(doc.Text())

	wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
		Title:    pageName,
		Text:     doc.Text(),
		Summary:  summary,
		Minor:    true,
		PrevText: pageText,
	})
	return nil
}
