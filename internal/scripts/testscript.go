package scripts

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/wiki"
)

const (
	testScriptPage   = "User:Rye Greenwood/Sandbox25"
	testScriptLimit  = 10
	testScriptPeriod = 7 * time.Second
)

// Test seams.
var (
	sleep       = time.Sleep
	randomDigit = func() int { return rand.IntN(2) }
)

// TestScript exercises the full read/write cycle against a sandbox page: it
// appends a random digit on every loop iteration, with a pause in between.
func TestScript(run *bot.Run) error {
	run.Logger.Info("Started testscript.")
	summary := run.Summary("")

	for i := 0; i < testScriptLimit; i++ {
		text, _, err := run.Site.PageText(testScriptPage)
		if err != nil {
			return &RuntimeError{Script: run.Script, Reason: fmt.Sprintf("reading %q failed", testScriptPage)}
		}

		digit := randomDigit()
		run.Logger.Info(fmt.Sprintf("Loop iteration #%d. Adding number: %d", i, digit))

		wiki.Save(run.Logger, run.Site, run.DryRun, wiki.SaveOptions{
			Title:    testScriptPage,
			Text:     fmt.Sprintf("%s %d", text, digit),
			Summary:  summary,
			Minor:    true,
			PrevText: text,
		})

		if i < testScriptLimit-1 {
			run.Logger.Info(fmt.Sprintf("Sleeping for %s...", testScriptPeriod))
			sleep(testScriptPeriod)
			run.Logger.Info("Woke up.")
		}
	}
	return nil
}
