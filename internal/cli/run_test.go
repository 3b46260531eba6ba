package cli

import (
	"fmt"
	"log/slog"
	"testing"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowbray/fieldbot/internal/changelog"
	"github.com/mowbray/fieldbot/internal/wiki"
)

// stubSite is a minimal wiki.Site for run command tests.
type stubSite struct {
	pages map[string]string
	exts  changelog.ExtensionSet
	edits int
}

func (s *stubSite) PageText(title string) (string, bool, error) {
	text, ok := s.pages[title]
	return text, ok, nil
}

func (s *stubSite) Edit(title, text, summary string, minor bool) (int64, error) {
	s.edits++
	if s.pages == nil {
		s.pages = map[string]string{}
	}
	s.pages[title] = text
	return int64(s.edits), nil
}

func (s *stubSite) Expand(text, title string) (string, error)           { return text, nil }
func (s *stubSite) Extensions() (changelog.ExtensionSet, error)         { return s.exts, nil }
func (s *stubSite) Walk(params.Values, func(*jason.Object) error) error { return nil }
func (s *stubSite) Username() string                                    { return "Fieldbot" }
func (s *stubSite) WikiID() string                                      { return "testwiki" }
func (s *stubSite) DiffURL(revID int64) string                          { return fmt.Sprintf("diff:%d", revID) }

func (s *stubSite) Parse(title string) (string, error) { return s.pages[title], nil }

func (s *stubSite) Purge(string) error { return nil }

func setCredentials(t *testing.T) {
	t.Setenv(envUsername, "Fieldbot@ci")
	t.Setenv(envPassword, "hunter2")
}

func TestRunScript_UnknownScript(t *testing.T) {
	err := runScript(&RunOptions{RootOptions: &RootOptions{Format: "text"}}, "nope")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown script")
	assert.Contains(t, err.Error(), "extensionupdates")
}

func TestRunScript_MissingCredentials(t *testing.T) {
	t.Setenv(envUsername, "")
	t.Setenv(envPassword, "")

	err := runScript(&RunOptions{RootOptions: &RootOptions{Format: "text"}}, "extensionupdates")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunScript_LoginFailure(t *testing.T) {
	setCredentials(t)
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		LoginFn: func(*slog.Logger, wiki.LoginOptions) (wiki.Site, error) {
			return nil, &wiki.LoginError{Wiki: "terraria", Details: "bad password"}
		},
	}

	err := runScript(opts, "extensionupdates")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	var loginErr *wiki.LoginError
	assert.ErrorAs(t, err, &loginErr)
}

func TestRunScript_Success(t *testing.T) {
	setCredentials(t)
	site := &stubSite{
		pages: map[string]string{"Extensions log": "Intro.\n"},
		exts:  changelog.ExtensionSet{{"name": "Cite", "version": "1.0"}},
	}
	opts := &RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		DryRun:         true,
		ConfigOverride: "|wiki_page=Extensions log",
		LoginFn: func(logger *slog.Logger, o wiki.LoginOptions) (wiki.Site, error) {
			assert.Equal(t, "terraria", o.Wiki)
			assert.Equal(t, "Fieldbot@ci", o.Credentials.Username)
			return site, nil
		},
		APIURL: "https://terraria.wiki.gg/api.php",
		Wiki:   "terraria",
	}

	err := runScript(opts, "extensionupdates")

	require.NoError(t, err)
	assert.Zero(t, site.edits, "dry-run must not write")
}

func TestRunScript_ScriptFailureExitCode(t *testing.T) {
	setCredentials(t)
	site := &stubSite{exts: changelog.ExtensionSet{{"name": "Cite"}}}
	opts := &RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		ConfigOverride: "|wiki_page=Missing page",
		LoginFn: func(*slog.Logger, wiki.LoginOptions) (wiki.Site, error) {
			return site, nil
		},
	}

	// The history page does not exist, which is fatal for extensionupdates.
	err := runScript(opts, "extensionupdates")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), `script "extensionupdates" failed`)
}
