// Package timerange provides a half-open time interval used by every
// scheduling overlap check. A range covers [Start, End): the end instant is
// excluded, so back-to-back ranges do not overlap.
package timerange

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange marks an empty or inverted interval.
var ErrInvalidRange = errors.New("invalid time range")

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds a Range, rejecting empty or inverted intervals.
func New(start, end time.Time) (Range, error) {
	if !end.After(start) {
		return Range{}, fmt.Errorf("end %s must be after start %s: %w", end.Format(time.RFC3339), start.Format(time.RFC3339), ErrInvalidRange)
	}
	return Range{Start: start, End: end}, nil
}

// FromDuration builds the range [start, start+d).
func FromDuration(start time.Time, d time.Duration) (Range, error) {
	return New(start, start.Add(d))
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Range) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether t falls inside r.
func Contains(r Range, t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration returns the length of the range.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
