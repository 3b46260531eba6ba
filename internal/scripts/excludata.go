package scripts

import (
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/wiki"
)

const (
	excluDataTemplate = "Template:Exclusive/luadata"
	excluDataModule   = "Module:Exclusive/data"

	// The database is large; output below this size means the template
	// rendered incorrectly.
	excluDataMinimumChars = 800
)

// The relevant database text sits between these markers in the rendered
// template, after the HTML cleanup.
const (
	excluDataStartMarker = "\n<div class=\"terraria\" style=\"white-space: pre\">"
	excluDataEndMarker   = "\n}\n\n</div>"
)

var brTag = regexp.MustCompile(`<br ?/>`)

// excluDataLine matches a database entry or legend line, for the pre-save
// comparison that ignores line order and the timestamp. The legend lines
// indent with en spaces.
var excluDataLine = regexp.MustCompile(`(?m)^(\[".+?"\] = \d+,|--\x{2002}*\d+: [\w\d]+)$`)

// ExcluData regenerates the exclusivity database module from its data
// template. The template emits the Lua source as rendered HTML, so the
// script purges and parses it rather than expanding wikitext.
func ExcluData(run *bot.Run) error {
	run.Logger.Info("Started excludata.")
	summary := run.Summary(fmt.Sprintf(
		"[[User:%s/bot/scripts/excludata|Updated]].", run.Site.Username()))

	// Purge first so the template renders from the most recent data.
	if err := run.Site.Purge(excluDataTemplate); err != nil {
		run.Logger.Error(fmt.Sprintf("Error while purging %q: %v", excluDataTemplate, err))
		run.Logger.Warn("Proceeding with an outdated version of it.",
			ghactions.Head(fmt.Sprintf("Using an outdated version of %q", excluDataTemplate)),
			ghactions.Body("Couldn't purge the template due to some error; check the logs for details."))
	} else {
		run.Logger.Info(fmt.Sprintf("Purged %q.", excluDataTemplate))
	}

	rendered, err := run.Site.Parse(excluDataTemplate)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Error while parsing %q: %v", excluDataTemplate, err),
			ghactions.Head(fmt.Sprintf("Unable to read %q", excluDataTemplate)),
			ghactions.Body("Couldn't parse the template due to some error; check the logs for details."))
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("unable to read %q", excluDataTemplate)}
	}
	run.Logger.Info(fmt.Sprintf("Read %q.", excluDataTemplate))

	output, err := excluDataFromHTML(rendered)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Error while trimming %q: %v", excluDataTemplate, err),
			ghactions.Head(fmt.Sprintf("Unable to trim output of %q", excluDataTemplate)),
			ghactions.Body("The format of the template output is unexpected. There has probably "+
				"been a change in the source and this script will likely need to be updated."))
		return &RuntimeError{Script: run.Script, Reason: "template output has an unexpected format"}
	}

	if len(output) < excluDataMinimumChars {
		run.Logger.Error(
			fmt.Sprintf("Output length of %q is <%d, most likely erroneously.",
				excluDataTemplate, excluDataMinimumChars),
			ghactions.Head("Content of the data template is unexpectedly small"),
			ghactions.Body(fmt.Sprintf(
				"The output of %q is only %d characters long, which is less than the "+
					"threshold of %d characters. It is very likely that an error occurred.",
				excluDataTemplate, len(output), excluDataMinimumChars)))
		return &RuntimeError{Script: run.Script, Reason: "data template output is too small"}
	}

	current, _, err := run.Site.PageText(excluDataModule)
	if err != nil {
		// Without the current text the pre-save check cannot run. Skip the
		// save rather than blindly overwrite the module.
		run.Logger.Error(fmt.Sprintf("Error while reading %q: %v", excluDataModule, err))
		run.Logger.Warn("Skipped pre-save check for changes; the module was not saved.",
			ghactions.Head("Skipped intelligent checking for trivial changes"),
			ghactions.Body(fmt.Sprintf(
				"Couldn't check if there are actual changes to be made in the database "+
					"module because reading %q failed due to some error (check the logs "+
					"for details). The module was not saved.", excluDataModule)))
		return nil
	}
	if sameExcluDataLines(current, output) {
		run.Logger.Info("No changes to be made.",
			ghactions.Head("No changes"),
			ghactions.Body("The database appears to be up-to-date."))
		return nil
	}

	wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
		Title:    excluDataModule,
		Text:     output,
		Summary:  summary,
		Minor:    true,
		PrevText: current,
	})
	return nil
}

// excluDataFromHTML turns the rendered template HTML back into the Lua
// source: line break tags and character references are resolved, stray
// paragraph tags removed, and the text trimmed to the database content.
func excluDataFromHTML(rendered string) (string, error) {
	text := brTag.ReplaceAllString(rendered, "\n")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "<p>--", "--")
	text = strings.ReplaceAll(text, "</p><p>", "")
	text = strings.ReplaceAll(text, "\n</p>\n", "\n\n")

	start := strings.Index(text, excluDataStartMarker)
	end := strings.Index(text, excluDataEndMarker)
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no database content markers in the rendered template")
	}
	// Keep the closing "\n}" of the Lua table.
	return text[start+len(excluDataStartMarker) : end+2], nil
}

// sameExcluDataLines reports whether the two texts carry the same set of
// database entry and legend lines. Line order and non-data lines (such as
// the generation timestamp) are ignored.
func sameExcluDataLines(current, generated string) bool {
	currentLines := excluDataLine.FindAllString(current, -1)
	generatedLines := excluDataLine.FindAllString(generated, -1)
	slices.Sort(currentLines)
	slices.Sort(generatedLines)
	return slices.Equal(currentLines, generatedLines)
}
