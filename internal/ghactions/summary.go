package ghactions

import (
	"fmt"
	"os"
)

// Environment variables set by the Actions runner.
const (
	envStepSummary = "GITHUB_STEP_SUMMARY"
	envRunID       = "GITHUB_RUN_ID"
	envActions     = "GITHUB_ACTIONS"
)

// OnActions reports whether the process runs inside a GitHub Actions job.
func OnActions() bool {
	return os.Getenv(envActions) == "true"
}

// RunID returns the workflow run id, or "" outside of Actions.
func RunID() string {
	return os.Getenv(envRunID)
}

// Summary appends markdown to the workflow step summary artifact.
type Summary struct {
	path string
}

// OpenSummary locates the step summary file from the environment. The
// second return value is false when the runner did not provide one.
func OpenSummary() (*Summary, bool) {
	path := os.Getenv(envStepSummary)
	if path == "" {
		return nil, false
	}
	return &Summary{path: path}, true
}

// NewSummary creates a summary writer for an explicit path, mainly for
// tests.
func NewSummary(path string) *Summary {
	return &Summary{path: path}
}

// Append writes a markdown fragment, followed by a newline, to the summary.
func (s *Summary) Append(markdown string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	if _, err := fmt.Fprintln(f, markdown); err != nil {
		f.Close()
		return fmt.Errorf("write step summary: %w", err)
	}
	return f.Close()
}
