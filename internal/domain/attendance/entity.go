package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the closed set of per-day attendance statuses. The string values
// are part of the wire contract; downstream renderers switch on exact match.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusHalfDay Status = "HalfDay"
	StatusHoliday Status = "Holiday"
	StatusLeave   Status = "Leave"
	StatusWeekOff Status = "WeekOff"
)

// MatrixNoData is the monthly matrix sentinel for a day with no materialized
// record. "No data available" is not the same as a known Absent.
const MatrixNoData = "-"

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusHoliday, StatusLeave, StatusWeekOff:
		return true
	}
	return false
}

// PunchEvent is a single raw device punch. Immutable and append-only;
// uniqueness is the exact (employee_id, device_id, timestamp) tuple.
type PunchEvent struct {
	ID         string
	EmployeeID string
	DeviceID   string
	Timestamp  time.Time
	SyncedAt   time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
}

// DailyRecord is the canonical per-employee, per-day attendance fact.
// (EmployeeID, Date) is the unique key; the record is always recomputed in
// full from punches plus calendar facts, never incrementally patched.
type DailyRecord struct {
	ID               string
	EmployeeID       string
	Date             time.Time // calendar day at midnight; time-of-day carries no meaning
	FirstIn          *time.Time
	LastOut          *time.Time
	WorkedMinutes    int
	Status           Status
	ExpectedMinutes  int
	CalendarDegraded bool
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
}

// Open reports whether the employee is punched in with no punch-out yet.
// Surfaced to callers as Present with a null last_out ("Working...").
func (r DailyRecord) Open() bool {
	return r.FirstIn != nil && r.LastOut == nil
}

// WeeklySummary is a derived view over seven consecutive DailyRecords starting
// at WeekStart. Recomputed at query time, never persisted.
type WeeklySummary struct {
	EmployeeID         string
	WeekStart          time.Time
	Days               [7]DailyRecord
	TotalWorkedMinutes int
}

// MonthlyMatrix is one employee row of the month view: a cell per calendar day
// holding either a Status string or the MatrixNoData sentinel. Totals and the
// completion percentage cover materialized cells only.
type MonthlyMatrix struct {
	EmployeeID         string
	EmployeeName       string
	Year               int
	Month              time.Month
	Cells              map[string]string
	TotalPresentDays   int
	TotalWorkedMinutes int
	CompletionPercent  decimal.Decimal
}

// DateKey renders a calendar day the way cells and repositories key it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
