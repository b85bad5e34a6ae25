package calendar

import (
	"context"
	"time"
)

// Provider supplies holiday and approved-leave calendar facts for a window.
// External data source; the engine only reads it.
type Provider interface {
	// ListHolidays returns the holidays in the inclusive date range.
	ListHolidays(ctx context.Context, from, to time.Time) ([]HolidayFact, error)

	// ListApprovedLeaveDays returns the approved leave days in the inclusive
	// range, for one employee or for all when employeeID is nil.
	ListApprovedLeaveDays(ctx context.Context, employeeID *string, from, to time.Time) ([]LeaveFact, error)
}
