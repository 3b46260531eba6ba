package scripts

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/wiki"
)

const (
	langInfoDataTemplate = "Template:Language info/datagen"
	langInfoDataModule   = "Module:Language info/data"

	// The generated database is large; output below this size means the
	// template expansion went wrong.
	langInfoDataMinimumChars = 800
)

// onlyincludeTag extracts the transcluded sections of the data template.
var onlyincludeTag = regexp.MustCompile(`(?s)<onlyinclude>(.*?)</onlyinclude>`)

// databaseEntryLine matches one database entry in the generated Lua module,
// for the pre-save comparison that ignores line order and the timestamp.
var databaseEntryLine = regexp.MustCompile(`(?m)^info\[".+?"\]\[".+?"\] ?= ?".+"$`)

// LangInfoData regenerates the language info database module from its data
// template. The template's transcluded sections are expanded server-side and
// written to the module page, unless the actual database entries are
// unchanged.
func LangInfoData(run *bot.Run) error {
	run.Logger.Info("Started langinfodata.")
	summary := run.Summary(fmt.Sprintf(
		"[[User:%s/bot/scripts/langinfodata|Updated]].", run.Site.Username()))

	templateText, err := wiki.ReadPage(run.Logger, run.Site, langInfoDataTemplate)
	if err != nil {
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("reading %q failed", langInfoDataTemplate)}
	}

	source := concatOnlyincludes(templateText)
	output, err := run.Site.Expand(source, langInfoDataTemplate)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Error while expanding the data template: %v", err),
			ghactions.Head("Expanding the data template failed"),
			ghactions.Body("Couldn't expand the template due to some error; check the logs for details."))
		return &RuntimeError{Script: run.Script, Reason: "template expansion failed"}
	}

	if len(output) < langInfoDataMinimumChars {
		run.Logger.Error(
			fmt.Sprintf("Output length of %q is <%d, most likely erroneously.",
				langInfoDataTemplate, langInfoDataMinimumChars),
			ghactions.Head("Content of the data template is unexpectedly small"),
			ghactions.Body(fmt.Sprintf(
				"The output of %q is only %d characters long, which is less than the "+
					"threshold of %d characters. It is very likely that an error occurred.",
				langInfoDataTemplate, len(output), langInfoDataMinimumChars)))
		return &RuntimeError{Script: run.Script, Reason: "data template output is too small"}
	}

	current, exists, err := run.Site.PageText(langInfoDataModule)
	switch {
	case err != nil:
		// Cannot check for trivial changes; save unconditionally.
		run.Logger.Error(fmt.Sprintf("Error while reading %q: %v", langInfoDataModule, err))
		run.Logger.Warn("Skipped pre-save check for changes.",
			ghactions.Head("Skipped intelligent checking for trivial changes"),
			ghactions.Body(fmt.Sprintf(
				"Couldn't check if there are actual changes to be made in the database "+
					"module because reading %q failed due to some error (check the logs "+
					"for details). Will now forcibly save the module, even if it's just "+
					"for a change in line order.", langInfoDataModule)))
	case exists && sameDatabaseEntries(current, output):
		run.Logger.Info("No changes to be made.",
			ghactions.Head("No changes"),
			ghactions.Body("The database appears to be up-to-date."))
		return nil
	}

	wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
		Title:    langInfoDataModule,
		Text:     output,
		Summary:  summary,
		Minor:    true,
		PrevText: current,
	})
	return nil
}

// concatOnlyincludes joins the contents of all <onlyinclude> tags, which is
// exactly the text the template emits when transcluded.
func concatOnlyincludes(text string) string {
	var parts []string
	for _, match := range onlyincludeTag.FindAllStringSubmatch(text, -1) {
		parts = append(parts, match[1])
	}
	return strings.Join(parts, "")
}

// sameDatabaseEntries reports whether the two module texts carry the same
// set of database entry lines. Line order and non-entry lines (such as the
// generation timestamp) are ignored.
func sameDatabaseEntries(current, generated string) bool {
	currentLines := databaseEntryLine.FindAllString(current, -1)
	generatedLines := databaseEntryLine.FindAllString(generated, -1)
	slices.Sort(currentLines)
	slices.Sort(generatedLines)
	return slices.Equal(currentLines, generatedLines)
}
