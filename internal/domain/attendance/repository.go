package attendance

import (
	"context"
	"time"
)

// PunchEventRepository is the append-only punch event store. Punches are
// written only by the device sync collaborator; everything else reads ranges.
type PunchEventRepository interface {
	// Append inserts a batch of punches, silently dropping exact
	// (employee_id, device_id, timestamp) duplicates. Returns how many rows
	// were actually inserted.
	Append(ctx context.Context, events []PunchEvent) (int, error)

	// ListForDay retrieves the punch timestamps for one employee inside the
	// half-open UTC instant window [dayStart, dayEnd).
	ListForDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]PunchEvent, error)

	// ListRange retrieves all punches in [from, to) for batch reconciliation,
	// optionally narrowed to one employee.
	ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]PunchEvent, error)

	// ListLog retrieves the paginated raw audit trail with employee names
	// joined in, ordered by timestamp ascending then employee id.
	ListLog(ctx context.Context, filter ActivityLogFilter) ([]PunchEvent, int64, error)

	// LastSyncedAt returns the ingestion time of the newest stored punch, or
	// nil when nothing has been ingested yet.
	LastSyncedAt(ctx context.Context) (*time.Time, error)
}

// DailyRecordRepository persists the canonical per-(employee, date) records.
type DailyRecordRepository interface {
	// Upsert writes the record for its (employee_id, date) key, overwriting
	// any previous version. Last writer wins; recomputation is deterministic.
	Upsert(ctx context.Context, rec DailyRecord) (DailyRecord, error)

	// GetByEmployeeAndDate returns nil when no record is materialized.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*DailyRecord, error)

	// List retrieves classified records for the filter's month with
	// pagination, ordered by date ascending then employee id ascending.
	List(ctx context.Context, filter ListFilter) ([]DailyRecord, int64, error)

	// ListRange retrieves all records in the inclusive date range, optionally
	// narrowed to one employee, for the aggregation builders.
	ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]DailyRecord, error)
}
