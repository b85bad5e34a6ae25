package calendar

import "errors"

// Calendar domain errors
var (
	// ErrUnavailable signals the calendar provider could not be reached.
	// Classification degrades to punch-only rules instead of failing.
	ErrUnavailable = errors.New("calendar provider unavailable")
)
