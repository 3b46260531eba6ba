package ghactions

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(buf, level))
}

func TestHandler_AnnotationWithHeadAndBody(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Warn("Page is protected, skipped it.",
		Head("Did not save the page"),
		Body("Couldn't save the page because it is protected."))

	assert.Equal(t,
		"::warning title=Did not save the page::Couldn't save the page because it is protected.\n",
		buf.String())
}

func TestHandler_LevelMapping(t *testing.T) {
	cases := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "::debug"},
		{slog.LevelInfo, "::notice"},
		{slog.LevelWarn, "::warning"},
		{slog.LevelError, "::error"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		logger := newTestLogger(&buf, slog.LevelDebug)
		logger.Log(context.Background(), tc.level, "msg", Head("t"), Body("b"))
		assert.True(t, strings.HasPrefix(buf.String(), tc.want),
			"level %v: got %q, want prefix %q", tc.level, buf.String(), tc.want)
	}
}

func TestHandler_PlainRecordsPassThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Info("Logged in to wiki.")

	got := buf.String()
	assert.NotContains(t, got, "::")
	assert.Contains(t, got, "Logged in to wiki.")
}

func TestHandler_BodyFallsBackToMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Error("the raw message", Head("Something failed"))

	assert.Equal(t, "::error title=Something failed::the raw message\n", buf.String())
}

func TestHandler_EscapesNewlinesAndCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Warn("msg", Head("a:b,c"), Body("line1\nline2"))

	assert.Equal(t, "::warning title=a%3Ab%2Cc::line1%0Aline2\n", buf.String())
}

func TestHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden", Head("x"))

	assert.Empty(t, buf.String())
}

func TestHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo).With(Head("preset title"))

	logger.Warn("msg", Body("body text"))

	assert.Equal(t, "::warning title=preset title::body text\n", buf.String())
}

func TestSummary_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	s := NewSummary(path)

	require.NoError(t, s.Append("### All good."))
	require.NoError(t, s.Append("Details follow."))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "### All good.\nDetails follow.\n", string(data))
}
