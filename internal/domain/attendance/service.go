package attendance

import (
	"context"
)

// Service defines the attendance query and reconciliation surface.
// Every method reads its scope (employee vs admin) from the request-scoped
// JWT claims; nothing consults ambient session state.
type Service interface {
	// Today returns the caller's record for the current day, computed live
	// from stored punches, plus the running weekly worked-minutes rollup.
	Today(ctx context.Context, req TodayRequest) (TodayResponse, error)

	// List retrieves one month of classified records with pagination.
	List(ctx context.Context, filter ListFilter) (ListRecordsResponse, error)

	// Weekly builds the 7-day summary starting at the caller-supplied week start.
	Weekly(ctx context.Context, filter WeeklyFilter) (WeeklySummaryResponse, error)

	// Monthly builds the employee x day status matrix for a month (admin view).
	Monthly(ctx context.Context, filter MonthlyFilter) (MonthlyMatrixResponse, error)

	// ActivityLog returns the raw punch audit trail, bypassing classification.
	ActivityLog(ctx context.Context, filter ActivityLogFilter) (ActivityLogResponse, error)

	// ReconcileRange recomputes and overwrites DailyRecords for every
	// (employee, date) with punches inside the inclusive range.
	ReconcileRange(ctx context.Context, req ReconcileRequest) (ReconcileResponse, error)
}
