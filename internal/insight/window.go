package insight

import (
	"errors"
	"fmt"
	"time"
)

// Input validation failures. Surfaced to the caller immediately, never
// retried and never resolved by a fallback.
var (
	ErrEmptyAccountSet = errors.New("insight: empty account set")
	ErrInvalidWindow   = errors.New("insight: invalid window")
	ErrWindowTooLong   = errors.New("insight: window exceeds maximum span")
	ErrInvalidNode     = errors.New("insight: invalid node id")
)

// Window is a half-open time range [Start, End) selecting posts for
// analysis. A zero End means "now".
type Window struct {
	Start time.Time
	End   time.Time
}

// LastHours builds a window covering the trailing n hours.
func LastHours(n int) Window {
	end := time.Now().UTC()
	return Window{Start: end.Add(-time.Duration(n) * time.Hour), End: end}
}

// Resolved returns the window with a concrete end timestamp.
func (w Window) Resolved() Window {
	if w.End.IsZero() {
		w.End = time.Now().UTC()
	}
	return w
}

// Validate checks well-formedness and, when maxSpan > 0, the caller-facing
// span limit used by the historical-report path.
func (w Window) Validate(maxSpan time.Duration) error {
	r := w.Resolved()
	if r.Start.IsZero() || !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start must precede end", ErrInvalidWindow)
	}
	if maxSpan > 0 && r.End.Sub(r.Start) > maxSpan {
		return fmt.Errorf("%w: %s > %s", ErrWindowTooLong, r.End.Sub(r.Start), maxSpan)
	}
	return nil
}

// Contains reports whether t falls inside the half-open range.
func (w Window) Contains(t time.Time) bool {
	r := w.Resolved()
	return !t.Before(r.Start) && t.Before(r.End)
}
