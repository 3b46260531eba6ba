package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mowbray/fieldbot/internal/bot"
	"github.com/mowbray/fieldbot/internal/ghactions"
	"github.com/mowbray/fieldbot/internal/scripts"
	"github.com/mowbray/fieldbot/internal/wiki"
)

// Environment variables carrying the bot-password credentials.
const (
	envUsername = "FIELDBOT_USERNAME"
	envPassword = "FIELDBOT_PASSWORD"
)

const userAgent = "fieldbot/1.0 (https://github.com/mowbray/fieldbot; " +
	"https://terraria.wiki.gg/wiki/User_talk:Fieldbot)"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DryRun         bool
	GitHub         bool
	ConfigOverride string
	APIURL         string
	Wiki           string

	// LoginFn allows overriding the wiki login (for testing).
	// If nil, defaults to wiki.Login.
	LoginFn func(logger *slog.Logger, opts wiki.LoginOptions) (wiki.Site, error)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Log in to the wiki and run a maintenance script",
		Long: `Log in to the wiki and run one of the registered maintenance scripts.

Credentials are read from the ` + envUsername + ` and ` + envPassword + `
environment variables (a bot password pair). With --dry-run, the script goes
through all its motions but writes nothing. With --github, logging switches
to workflow annotation commands and the result is appended to the step
summary.

Example:
  fieldbot run extensionupdates
  fieldbot run testscript --dry-run --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "make no changes to any wiki pages")
	cmd.Flags().BoolVarP(&opts.GitHub, "github", "g", false, "format output for GitHub Actions")
	cmd.Flags().StringVar(&opts.ConfigOverride, "config-override", "",
		"script configuration as |key=value|... instead of the on-wiki config page")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "https://terraria.wiki.gg/api.php", "api.php URL of the target wiki")
	cmd.Flags().StringVar(&opts.Wiki, "wiki", "terraria", "expected wiki id, validated after login")

	return cmd
}

func runScript(opts *RunOptions, name string) error {
	fn, ok := scripts.Lookup(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf(
			"unknown script %q (available: %s)", name, strings.Join(scripts.Names(), ", ")))
	}

	logger := newRunLogger(opts)
	slog.SetDefault(logger)

	logger.Info(fmt.Sprintf("Started fieldbot for script %q.", name))
	if opts.DryRun {
		logger.Info("Dry-run mode is active: No changes to any wiki pages will be made.")
	}

	creds, err := wiki.CredentialsFromEnv(envUsername, envPassword)
	if err != nil {
		return WrapExitError(ExitCommandError, "missing credentials", err)
	}

	login := opts.LoginFn
	if login == nil {
		login = func(logger *slog.Logger, o wiki.LoginOptions) (wiki.Site, error) {
			return wiki.Login(logger, o)
		}
	}
	site, err := login(logger, wiki.LoginOptions{
		APIURL:      opts.APIURL,
		UserAgent:   userAgent,
		Wiki:        opts.Wiki,
		Credentials: creds,
	})
	if err != nil {
		logger.Error(err.Error())
		if opts.GitHub {
			appendStepSummary(logger, "### Login failed!\n"+err.Error())
		}
		return WrapExitError(ExitFailure, "login failed", err)
	}

	run := bot.NewRun(logger, site, name, opts.DryRun)
	run.ConfigOverride = opts.ConfigOverride

	if err := fn(run); err != nil {
		logger.Error(err.Error())
		if opts.GitHub {
			appendStepSummary(logger, "### Script failed!\n"+err.Error())
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("script %q failed", name), err)
	}

	if opts.GitHub {
		appendStepSummary(logger, "### All good.")
	}
	logger.Info("Successfully completed the run.")
	return nil
}

// newRunLogger builds the logger for a script run: workflow annotation
// commands on GitHub Actions, plain text lines otherwise.
func newRunLogger(opts *RunOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.GitHub {
		return slog.New(ghactions.NewHandler(os.Stderr, level))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// appendStepSummary writes the run result to the workflow step summary, if
// the runner provides one.
func appendStepSummary(logger *slog.Logger, markdown string) {
	summary, ok := ghactions.OpenSummary()
	if !ok {
		return
	}
	if err := summary.Append(markdown); err != nil {
		logger.Error(fmt.Sprintf("Couldn't write the step summary: %v", err))
	}
}
