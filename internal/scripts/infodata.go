package scripts

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/stopwatch"
	"github.com/mowbray/fieldbot/internal/wiki"
)

// The generated data sits between these marker lines; the module text
// before and after them is hand-maintained and must survive the update.
const (
	dataStartLine = "---------------------------------------- DATA START\n"
	dataEndLine   = "---------------------------------------- DATA END\n"
)

// infoDatabase describes one of the generated game databases: a Lua module
// whose data section is produced by an on-wiki datagen function, invoked in
// chunks over a numeric ID range.
type infoDatabase struct {
	Link    string // page name fragment for the edit summary link
	Module  string // target module page
	Datagen string // module providing the genMeta and gen functions

	// MinIDTemplate and MaxIDTemplate expand to the ID range bounds. An
	// empty MinIDTemplate means the range starts at 0.
	MinIDTemplate string
	MaxIDTemplate string

	ChunkSize int
}

// updateInfoDatabase regenerates one info database module. The freshly
// generated data replaces the section between the marker lines, unless it
// matches the existing data (ignoring whitespace and the generation
// timestamp).
func updateInfoDatabase(run *bot.Run, db infoDatabase) error {
	run.Logger.Info(fmt.Sprintf("Started %s.", run.Script))
	summary := run.Summary(fmt.Sprintf(
		"[[User:%s/bot/scripts/%s|Updated]].", run.Site.Username(), db.Link))

	meta, err := run.Site.Expand(fmt.Sprintf("{{#invoke:%s|genMeta}}", db.Datagen), "")
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Error while generating the metadata: %v", err),
			ghactions.Head("Generating the database metadata failed"),
			ghactions.Body(fmt.Sprintf("Invoking the genMeta function of %q failed.", db.Datagen)))
		return &RuntimeError{Script: run.Script, Reason: "metadata generation failed"}
	}

	body, err := generateData(run, db)
	if err != nil {
		return err
	}
	data := meta + "\n" + body + "\n\n"

	moduleText, err := wiki.ReadPage(run.Logger, run.Site, db.Module)
	if err != nil {
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("reading %q failed", db.Module)}
	}

	head, current, foot, err := splitDataModule(moduleText)
	if err != nil {
		run.Logger.Error(fmt.Sprintf("Error while splitting %q: %v", db.Module, err),
			ghactions.Head(fmt.Sprintf("%s has an unexpected format", db.Module)),
			ghactions.Body(fmt.Sprintf("Couldn't find the data marker lines in the module text: %v", err)))
		return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("%q has an unexpected format", db.Module)}
	}

	if sameGeneratedData(data, current) {
		run.Logger.Info("No changes to be made.",
			ghactions.Head("No changes"),
			ghactions.Body("The database appears to be up-to-date."))
		return nil
	}

	wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
		Title:    db.Module,
		Text:     head + data + foot,
		Summary:  summary,
		Minor:    true,
		PrevText: moduleText,
	})
	return nil
}

// generateData invokes the datagen function over the full ID range, in
// chunks, and concatenates the results. An empty chunk result is fatal; the
// database must never be saved with a hole in it.
func generateData(run *bot.Run, db infoDatabase) (string, error) {
	lower := 0
	if db.MinIDTemplate != "" {
		id, err := expandID(run, db.MinIDTemplate)
		if err != nil {
			reason := "couldn't determine the lowest ID"
			run.Logger.Error(fmt.Sprintf("%s: %v", reason, err),
				ghactions.Head("Couldn't determine the lowest ID"),
				ghactions.Body(fmt.Sprintf("Expanding {{%s}} failed.", db.MinIDTemplate)))
			return "", &RuntimeError{Script: run.Script, Reason: reason}
		}
		lower = id
	}
	max, err := expandID(run, db.MaxIDTemplate)
	if err != nil {
		reason := "couldn't determine the greatest ID"
		run.Logger.Error(fmt.Sprintf("%s: %v", reason, err),
			ghactions.Head("Couldn't determine the greatest ID"),
			ghactions.Body(fmt.Sprintf("Expanding {{%s}} failed.", db.MaxIDTemplate)))
		return "", &RuntimeError{Script: run.Script, Reason: reason}
	}

	run.Logger.Info(fmt.Sprintf(
		"Generating module code for IDs %d through %d, in chunks of %d.",
		lower, max, db.ChunkSize))

	var chunks []string
	for ; lower <= max; lower += db.ChunkSize {
		upper := min(lower+db.ChunkSize-1, max)
		invocation := fmt.Sprintf("{{#invoke:%s|gen|%d|%d}}", db.Datagen, lower, upper)
		run.Logger.Info(invocation)

		watch := stopwatch.New()
		chunk, err := run.Site.Expand(invocation, "")
		if err == nil && chunk == "" {
			err = fmt.Errorf("the invocation returned no output")
		}
		if err != nil {
			run.Logger.Error(fmt.Sprintf("Couldn't parse %q: %v", invocation, err),
				ghactions.Head("Parsing a chunk failed"),
				ghactions.Body(fmt.Sprintf("The chunk %q returned no output.", invocation)))
			return "", &RuntimeError{Script: run.Script, Reason: "parsing a chunk failed"}
		}
		watch.Stop()
		run.Logger.Info(fmt.Sprintf("    parsed in %s", watch))
		chunks = append(chunks, chunk)
	}
	return strings.Join(chunks, ""), nil
}

// expandID expands a template that yields a single numeric ID.
func expandID(run *bot.Run, template string) (int, error) {
	out, err := run.Site.Expand("{{"+template+"}}", "")
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("expanding {{%s}} returned %q, not an ID", template, out)
	}
	return id, nil
}

// splitDataModule cuts the module text at the marker lines into the part
// before the data (including the start marker), the data itself, and the
// part after it (including the end marker).
func splitDataModule(text string) (head, body, foot string, err error) {
	lines := strings.SplitAfter(text, "\n")
	start := slices.Index(lines, dataStartLine)
	if start == -1 {
		return "", "", "", fmt.Errorf("start line %q not found", strings.TrimSpace(dataStartLine))
	}
	end := -1
	for i := len(lines) - 1; i > start; i-- {
		if lines[i] == dataEndLine {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", "", fmt.Errorf("end line %q not found", strings.TrimSpace(dataEndLine))
	}
	return strings.Join(lines[:start+1], ""),
		strings.Join(lines[start+1:end], ""),
		strings.Join(lines[end:], ""), nil
}

// sameGeneratedData reports whether two data sections carry the same
// content, ignoring whitespace, blank lines and the generation timestamp
// line (which always changes).
func sameGeneratedData(generated, current string) bool {
	return slices.Equal(dataLines(generated), dataLines(current))
}

func dataLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "['_generated']") {
			continue
		}
		out = append(out, line)
	}
	return out
}
