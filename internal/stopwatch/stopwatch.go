// Package stopwatch measures the time elapsed between two moments, mainly
// for timing page saves in log output.
package stopwatch

import (
	"errors"
	"time"
)

// ErrAlreadyRunning is returned when starting a running stopwatch.
var ErrAlreadyRunning = errors.New("stopwatch: already running")

// ErrNotRunning is returned when stopping an idle stopwatch.
var ErrNotRunning = errors.New("stopwatch: not running")

// Stopwatch measures elapsed time. The zero value is idle; New returns one
// that is already running.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration

	// now allows tests to substitute a deterministic clock.
	now func() time.Time
}

// New creates a stopwatch and starts it immediately.
func New() *Stopwatch {
	s := &Stopwatch{}
	_ = s.Start() // a fresh stopwatch cannot already be running
	return s
}

// Start begins measuring time.
func (s *Stopwatch) Start() error {
	if !s.start.IsZero() {
		return ErrAlreadyRunning
	}
	s.start = s.clock()()
	return nil
}

// Stop ends the measurement and returns the elapsed time.
func (s *Stopwatch) Stop() (time.Duration, error) {
	end := s.clock()() // read the clock as early as possible
	if s.start.IsZero() {
		return 0, ErrNotRunning
	}
	s.elapsed = end.Sub(s.start)
	s.start = time.Time{}
	return s.elapsed, nil
}

// Elapsed returns the most recently measured duration.
func (s *Stopwatch) Elapsed() time.Duration { return s.elapsed }

// String formats the most recent measurement, rounded to milliseconds.
func (s *Stopwatch) String() string {
	return s.elapsed.Round(time.Millisecond).String()
}

func (s *Stopwatch) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}
