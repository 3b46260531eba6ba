// Package ghactions adapts the bot's logging and reporting to GitHub
// Actions workflow runs: log records become annotation commands, and run
// results are appended to the step summary artifact.
package ghactions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Attribute keys that mark a log record as user-facing. Records carrying
// them are rendered as workflow annotations with a short title ("head") and
// a longer message ("body"); records without them pass through as plain log
// lines.
const (
	HeadKey = "head"
	BodyKey = "body"
)

// Head returns the short annotation title attribute for a log record.
func Head(title string) slog.Attr { return slog.String(HeadKey, title) }

// Body returns the longer annotation message attribute for a log record.
func Body(message string) slog.Attr { return slog.String(BodyKey, message) }

// Handler is a slog.Handler that emits GitHub Actions workflow commands
// (::notice, ::debug, ::warning, ::error) instead of ordinary log lines.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	preset []slog.Attr
}

// NewHandler creates a handler writing workflow commands to w. Records
// below level are dropped.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	var head, body string
	collect := func(attr slog.Attr) bool {
		switch attr.Key {
		case HeadKey:
			head = attr.Value.String()
		case BodyKey:
			body = attr.Value.String()
		}
		return true
	}
	for _, attr := range h.preset {
		collect(attr)
	}
	rec.Attrs(collect)

	h.mu.Lock()
	defer h.mu.Unlock()

	if head == "" && body == "" {
		_, err := fmt.Fprintf(h.w, "%s %s\n", rec.Level, escapeData(rec.Message))
		return err
	}

	command := "notice"
	switch {
	case rec.Level < slog.LevelInfo:
		command = "debug"
	case rec.Level >= slog.LevelError:
		command = "error"
	case rec.Level >= slog.LevelWarn:
		command = "warning"
	}

	message := body
	if message == "" {
		message = rec.Message
	}
	title := ""
	if head != "" {
		title = " title=" + escapeProperty(head)
	}
	_, err := fmt.Fprintf(h.w, "::%s%s::%s\n", command, title, escapeData(message))
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append(append([]slog.Attr{}, h.preset...), attrs...)
	return &next
}

// WithGroup implements slog.Handler. Groups are irrelevant to annotation
// rendering; head/body attrs are only recognized at the top level.
func (h *Handler) WithGroup(string) slog.Handler { return h }

// escapeData escapes a workflow command's message per the Actions toolkit
// rules.
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// escapeProperty escapes a workflow command property value (the title).
func escapeProperty(s string) string {
	return strings.NewReplacer(
		"%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C",
	).Replace(s)
}
