package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// QUERY FILTERS
// ========================================

// ListFilter drives the all-attendance listing: one month of classified
// records, optionally narrowed to one employee or a free-text search.
type ListFilter struct {
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	EmployeeID *string `json:"emp_id,omitempty"`
	Search     *string `json:"search,omitempty"` // case-insensitive substring over name/code

	// Pagination (1-indexed)
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month < 1 || f.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Year < 2000 || f.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ActivityLogFilter drives the raw punch audit trail. Classification is
// bypassed entirely; compliance reviewers see punches as delivered.
type ActivityLogFilter struct {
	From       string  `json:"from"` // YYYY-MM-DD, inclusive
	To         string  `json:"to"`   // YYYY-MM-DD, inclusive
	EmployeeID *string `json:"emp_id,omitempty"`

	// Pagination (1-indexed)
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ActivityLogFilter) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(f.From); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	if _, valid := validator.IsValidDate(f.To); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 10 // Audit views page at 10
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// WeeklyFilter selects the employee (own record, or by search for admins) and
// the caller-supplied week start.
type WeeklyFilter struct {
	Search *string `json:"search,omitempty"`
	From   string  `json:"from"`         // week_start, YYYY-MM-DD
	To     *string `json:"to,omitempty"` // if given, must equal from+6 days
}

func (f *WeeklyFilter) Validate() error {
	var errs validator.ValidationErrors

	from, valid := validator.IsValidDate(f.From)
	if !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}

	if f.To != nil && *f.To != "" {
		to, valid := validator.IsValidDate(*f.To)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must be in YYYY-MM-DD format",
			})
		} else if valid && !to.Equal(from.AddDate(0, 0, 6)) {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "a weekly window is exactly 7 days; to must be from+6",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// MonthlyFilter selects the month for the admin matrix view.
type MonthlyFilter struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (f *MonthlyFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month < 1 || f.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Year < 2000 || f.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// TodayRequest asks for the caller's (or, for admins, any employee's) record
// for the current calendar day.
type TodayRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
}

// ReconcileRequest triggers a batch re-reconciliation over an inclusive date
// range. Used by admins and by the device sync job after ingesting a batch.
type ReconcileRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	From       string  `json:"from"`
	To         string  `json:"to"`
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.From); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	if _, valid := validator.IsValidDate(r.To); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSES
// ========================================

type DailyRecordResponse struct {
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     string  `json:"employee_name,omitempty"`
	Date             string  `json:"date"`
	FirstIn          *string `json:"first_in"`
	LastOut          *string `json:"last_out"`
	WorkedMinutes    int     `json:"worked_minutes"`
	Status           Status  `json:"status"`
	ExpectedMinutes  int     `json:"expected_minutes"`
	CalendarDegraded bool    `json:"calendar_degraded,omitempty"`
}

type WeeklyRollup struct {
	TotalWorkedMinutes int `json:"total_worked_minutes"`
}

type TodayResponse struct {
	Record DailyRecordResponse `json:"record"`
	Weekly WeeklyRollup        `json:"weekly"`
}

// PageMeta is reported on every paginated response, computed from the
// filtered set, never the unfiltered one.
type PageMeta struct {
	CurrentPage  int   `json:"current_page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"total_records"`
	TotalPages   int   `json:"total_pages"`
}

// NewPageMeta derives pagination metadata for a filtered total.
func NewPageMeta(total int64, page, limit int) PageMeta {
	return PageMeta{
		CurrentPage:  page,
		Limit:        limit,
		TotalRecords: total,
		TotalPages:   TotalPages(total, limit),
	}
}

type ListRecordsResponse struct {
	Records []DailyRecordResponse `json:"records"`
	Meta    PageMeta              `json:"meta"`
}

type WeeklySummaryResponse struct {
	EmployeeID         string                `json:"employee_id"`
	EmployeeName       string                `json:"employee_name,omitempty"`
	WeekStart          string                `json:"week_start"`
	Days               []DailyRecordResponse `json:"days"`
	TotalWorkedMinutes int                   `json:"total_worked_minutes"`
}

type PunchEventResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	DeviceID     string `json:"device_id"`
	Timestamp    string `json:"timestamp"`
}

type ActivityLogResponse struct {
	SyncedAt *string              `json:"synced_at"` // staleness marker: newest ingested punch
	Punches  []PunchEventResponse `json:"punches"`
	Meta     PageMeta             `json:"meta"`
}

type MonthlyRowResponse struct {
	EmployeeID         string            `json:"employee_id"`
	EmployeeName       string            `json:"employee_name"`
	Cells              map[string]string `json:"cells"`
	TotalPresentDays   int               `json:"total_present_days"`
	TotalWorkedMinutes int               `json:"total_worked_minutes"`
	CompletionPercent  string            `json:"completion_percent"`
}

type MonthlyMatrixResponse struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Rows  []MonthlyRowResponse `json:"rows"`
}

type ReconcileResponse struct {
	From            string `json:"from"`
	To              string `json:"to"`
	ReconciledDays  int    `json:"reconciled_days"`
	RejectedPunches int    `json:"rejected_punches"`
}

// TotalPages computes the page count the way every paginated endpoint reports
// it: over the filtered total, not the unfiltered one.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}

// FormatPunchTime renders punch timestamps for responses.
func FormatPunchTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02 15:04:05")
	return &s
}
