package attendance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// AttendanceService implements attendance.Service on top of the punch store,
// the record store, and the calendar collaborator. It also exposes
// ReconcileWindow for the device sync job, which runs without request claims.
type AttendanceService struct {
	punchRepo    attendance.PunchEventRepository
	dailyRepo    attendance.DailyRecordRepository
	employeeRepo employee.Repository
	calendars    calendar.Provider
	workday      config.WorkdayConfig
	query        config.QueryConfig
	logger       *slog.Logger
}

func NewAttendanceService(
	punchRepo attendance.PunchEventRepository,
	dailyRepo attendance.DailyRecordRepository,
	employeeRepo employee.Repository,
	calendars calendar.Provider,
	workday config.WorkdayConfig,
	query config.QueryConfig,
	logger *slog.Logger,
) *AttendanceService {
	return &AttendanceService{
		punchRepo:    punchRepo,
		dailyRepo:    dailyRepo,
		employeeRepo: employeeRepo,
		calendars:    calendars,
		workday:      workday,
		query:        query,
		logger:       logger,
	}
}

// Today computes the caller's record for the current calendar day live from
// stored punches, never from a possibly stale materialized record, and pairs
// it with the running weekly worked-minutes total.
func (s *AttendanceService) Today(ctx context.Context, req attendance.TodayRequest) (attendance.TodayResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	employeeID := scope.EmployeeID
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		if !scope.Admin() && *req.EmployeeID != scope.EmployeeID {
			return attendance.TodayResponse{}, attendance.ErrScopeForbidden
		}
		employeeID = *req.EmployeeID
	}
	if employeeID == "" {
		return attendance.TodayResponse{}, attendance.ErrMissingEmployeeID
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return attendance.TodayResponse{}, err
	}
	loc := s.locationFor(emp)

	// "Today" is the employee's local calendar day, not the server's.
	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := s.punchRepo.ListForDay(ctx, employeeID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return attendance.TodayResponse{}, err
	}
	punches := make([]time.Time, 0, len(events))
	for _, e := range events {
		punches = append(punches, e.Timestamp.In(loc))
	}

	rec, err := Reconcile(employeeID, now, loc, punches)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	facts := s.loadFacts(ctx, rec.Date, rec.Date, &employeeID)
	day := facts.ForDay(employeeID, rec.Date)
	if day.Degraded {
		day, err = s.storedFactsForDay(ctx, employeeID, rec.Date, day)
		if err != nil {
			return attendance.TodayResponse{}, err
		}
	}
	rec = Classify(rec, day, s.workday)
	rec.EmployeeName = &emp.FullName

	weekly, err := s.weeklyRollup(ctx, rec)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	return attendance.TodayResponse{
		Record: toDailyRecordResponse(rec),
		Weekly: weekly,
	}, nil
}

// storedFactsForDay recovers calendar facts from the materialized record for
// the day. During a calendar outage a record reconciled earlier with live
// facts is a better source than degraded live classification, which would
// downgrade a known Holiday or Leave to whatever the punches say.
func (s *AttendanceService) storedFactsForDay(ctx context.Context, employeeID string, date time.Time, degraded calendar.DayFacts) (calendar.DayFacts, error) {
	stored, err := s.dailyRepo.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return calendar.DayFacts{}, err
	}
	if stored == nil || stored.CalendarDegraded {
		return degraded, nil
	}

	switch stored.Status {
	case attendance.StatusHoliday:
		return calendar.DayFacts{Holiday: &calendar.HolidayFact{Date: date}}, nil
	case attendance.StatusLeave:
		return calendar.DayFacts{OnLeave: true}, nil
	}
	return degraded, nil
}

// weeklyRollup sums worked minutes over the Monday-based week containing
// today, substituting the live record for any stale materialized today row.
func (s *AttendanceService) weeklyRollup(ctx context.Context, today attendance.DailyRecord) (attendance.WeeklyRollup, error) {
	offset := (int(today.Date.Weekday()) + 6) % 7
	weekStart := today.Date.AddDate(0, 0, -offset)

	records, err := s.dailyRepo.ListRange(ctx, weekStart, weekStart.AddDate(0, 0, 6), &today.EmployeeID)
	if err != nil {
		return attendance.WeeklyRollup{}, err
	}

	todayKey := attendance.DateKey(today.Date)
	total := today.WorkedMinutes
	for _, r := range records {
		if attendance.DateKey(r.Date) == todayKey {
			continue
		}
		total += r.WorkedMinutes
	}

	return attendance.WeeklyRollup{TotalWorkedMinutes: total}, nil
}

// List retrieves one month of classified records. Non-admin callers are
// always narrowed to their own employee id, whatever the filter says.
func (s *AttendanceService) List(ctx context.Context, filter attendance.ListFilter) (attendance.ListRecordsResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}
	if !scope.Admin() {
		own := scope.EmployeeID
		filter.EmployeeID = &own
	}

	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, total, err := s.dailyRepo.List(ctx, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	resp := attendance.ListRecordsResponse{
		Records: make([]attendance.DailyRecordResponse, 0, len(records)),
		Meta:    attendance.NewPageMeta(total, filter.Page, filter.Limit),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, toDailyRecordResponse(r))
	}

	return resp, nil
}

// Weekly builds the 7-day summary starting at the caller-supplied week start.
// Admins may target another employee by search; everyone else gets their own.
func (s *AttendanceService) Weekly(ctx context.Context, filter attendance.WeeklyFilter) (attendance.WeeklySummaryResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}

	var emp employee.Employee
	switch {
	case scope.Admin() && filter.Search != nil && *filter.Search != "":
		matches, err := s.employeeRepo.Search(ctx, *filter.Search)
		if err != nil {
			return attendance.WeeklySummaryResponse{}, err
		}
		if len(matches) == 0 {
			return attendance.WeeklySummaryResponse{}, employee.ErrEmployeeNotFound
		}
		emp = matches[0]
	case scope.EmployeeID != "":
		emp, err = s.employeeRepo.GetByID(ctx, scope.EmployeeID)
		if err != nil {
			return attendance.WeeklySummaryResponse{}, err
		}
	default:
		return attendance.WeeklySummaryResponse{}, attendance.ErrMissingEmployeeID
	}

	weekStart, _ := validator.IsValidDate(filter.From)
	weekEnd := weekStart.AddDate(0, 0, 6)

	records, err := s.dailyRepo.ListRange(ctx, weekStart, weekEnd, &emp.ID)
	if err != nil {
		return attendance.WeeklySummaryResponse{}, err
	}
	facts := s.loadFacts(ctx, weekStart, weekEnd, &emp.ID)

	summary := BuildWeekly(emp, weekStart, records, facts, s.workday)

	resp := attendance.WeeklySummaryResponse{
		EmployeeID:         emp.ID,
		EmployeeName:       emp.FullName,
		WeekStart:          attendance.DateKey(summary.WeekStart),
		Days:               make([]attendance.DailyRecordResponse, 0, len(summary.Days)),
		TotalWorkedMinutes: summary.TotalWorkedMinutes,
	}
	for _, d := range summary.Days {
		resp.Days = append(resp.Days, toDailyRecordResponse(d))
	}

	return resp, nil
}

// Monthly builds the employee x day status matrix for a month. Admin only.
func (s *AttendanceService) Monthly(ctx context.Context, filter attendance.MonthlyFilter) (attendance.MonthlyMatrixResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.MonthlyMatrixResponse{}, err
	}
	if !scope.Admin() {
		return attendance.MonthlyMatrixResponse{}, attendance.ErrScopeForbidden
	}
	if err := filter.Validate(); err != nil {
		return attendance.MonthlyMatrixResponse{}, err
	}

	month := time.Month(filter.Month)
	monthStart := time.Date(filter.Year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return attendance.MonthlyMatrixResponse{}, err
	}
	records, err := s.dailyRepo.ListRange(ctx, monthStart, monthEnd, nil)
	if err != nil {
		return attendance.MonthlyMatrixResponse{}, err
	}

	rows, err := BuildMonthly(ctx, filter.Year, month, employees, records, s.workday)
	if err != nil {
		return attendance.MonthlyMatrixResponse{}, err
	}

	resp := attendance.MonthlyMatrixResponse{
		Year:  filter.Year,
		Month: filter.Month,
		Rows:  make([]attendance.MonthlyRowResponse, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, attendance.MonthlyRowResponse{
			EmployeeID:         row.EmployeeID,
			EmployeeName:       row.EmployeeName,
			Cells:              row.Cells,
			TotalPresentDays:   row.TotalPresentDays,
			TotalWorkedMinutes: row.TotalWorkedMinutes,
			CompletionPercent:  row.CompletionPercent.StringFixed(2),
		})
	}

	return resp, nil
}

// ActivityLog returns the raw punch audit trail. Punches are reported exactly
// as ingested; classification never touches this path.
func (s *AttendanceService) ActivityLog(ctx context.Context, filter attendance.ActivityLogFilter) (attendance.ActivityLogResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.ActivityLogResponse{}, err
	}
	if !scope.Admin() {
		own := scope.EmployeeID
		filter.EmployeeID = &own
	}

	if err := filter.Validate(); err != nil {
		return attendance.ActivityLogResponse{}, err
	}
	from, _ := validator.IsValidDate(filter.From)
	to, _ := validator.IsValidDate(filter.To)
	if err := s.checkWindow(from, to); err != nil {
		return attendance.ActivityLogResponse{}, err
	}

	events, total, err := s.punchRepo.ListLog(ctx, filter)
	if err != nil {
		return attendance.ActivityLogResponse{}, err
	}
	syncedAt, err := s.punchRepo.LastSyncedAt(ctx)
	if err != nil {
		return attendance.ActivityLogResponse{}, err
	}

	resp := attendance.ActivityLogResponse{
		SyncedAt: attendance.FormatPunchTime(syncedAt),
		Punches:  make([]attendance.PunchEventResponse, 0, len(events)),
		Meta:     attendance.NewPageMeta(total, filter.Page, filter.Limit),
	}
	for _, e := range events {
		p := attendance.PunchEventResponse{
			EmployeeID: e.EmployeeID,
			DeviceID:   e.DeviceID,
			Timestamp:  e.Timestamp.Format("2006-01-02 15:04:05"),
		}
		if e.EmployeeName != nil {
			p.EmployeeName = *e.EmployeeName
		}
		resp.Punches = append(resp.Punches, p)
	}

	return resp, nil
}

// ReconcileRange is the admin-triggered batch recompute. Validation and
// authorization live here; the actual work is ReconcileWindow so the device
// sync job can share it without claims.
func (s *AttendanceService) ReconcileRange(ctx context.Context, req attendance.ReconcileRequest) (attendance.ReconcileResponse, error) {
	scope, err := jwt.ScopeFromContext(ctx)
	if err != nil {
		return attendance.ReconcileResponse{}, err
	}
	if !scope.Admin() {
		return attendance.ReconcileResponse{}, attendance.ErrScopeForbidden
	}

	if err := req.Validate(); err != nil {
		return attendance.ReconcileResponse{}, err
	}
	from, _ := validator.IsValidDate(req.From)
	to, _ := validator.IsValidDate(req.To)
	if err := s.checkWindow(from, to); err != nil {
		return attendance.ReconcileResponse{}, err
	}

	return s.ReconcileWindow(ctx, from, to, req.EmployeeID)
}

// ReconcileWindow recomputes and overwrites the DailyRecord for every
// (employee, local date) that has punches inside the inclusive date range.
// Deterministic and idempotent: re-running over the same punches writes the
// same records.
func (s *AttendanceService) ReconcileWindow(ctx context.Context, from, to time.Time, employeeID *string) (attendance.ReconcileResponse, error) {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	// Padded by a day each side so a punch near midnight lands on the right
	// local date regardless of the employee's UTC offset.
	events, err := s.punchRepo.ListRange(ctx, from.AddDate(0, 0, -1), to.AddDate(0, 0, 2), employeeID)
	if err != nil {
		return attendance.ReconcileResponse{}, err
	}

	emps := make(map[string]employee.Employee)
	locs := make(map[string]*time.Location)
	unknown := make(map[string]bool)
	grouped := make(map[string]map[string][]time.Time) // employeeID -> dateKey -> punches
	rejected := 0

	for _, e := range events {
		if unknown[e.EmployeeID] {
			rejected++
			continue
		}
		emp, ok := emps[e.EmployeeID]
		if !ok {
			emp, err = s.employeeRepo.GetByID(ctx, e.EmployeeID)
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				// Device delivered a punch for an unknown badge. Keep the raw
				// event, reject it from reconciliation.
				s.logger.Warn("skipping punch for unknown employee",
					slog.String("employee_id", e.EmployeeID),
					slog.String("device_id", e.DeviceID))
				unknown[e.EmployeeID] = true
				rejected++
				continue
			}
			if err != nil {
				return attendance.ReconcileResponse{}, err
			}
			emps[e.EmployeeID] = emp
			locs[e.EmployeeID] = s.locationFor(emp)
		}

		local := e.Timestamp.In(locs[e.EmployeeID])
		localDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if localDay.Before(from) || localDay.After(to) {
			continue
		}

		if grouped[e.EmployeeID] == nil {
			grouped[e.EmployeeID] = make(map[string][]time.Time)
		}
		key := attendance.DateKey(localDay)
		grouped[e.EmployeeID][key] = append(grouped[e.EmployeeID][key], local)
	}

	facts := s.loadFacts(ctx, from, to, employeeID)

	reconciled := 0
	for empID, days := range grouped {
		loc := locs[empID]
		keys := make([]string, 0, len(days))
		for key := range days {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			day, _ := time.Parse("2006-01-02", key)
			rec, err := Reconcile(empID, day, loc, days[key])
			if err != nil {
				// Grouping guarantees in-day punches, so this is a data bug.
				s.logger.Warn("failed to reconcile day",
					slog.String("employee_id", empID),
					slog.String("date", key),
					slog.Any("error", err))
				rejected += len(days[key])
				continue
			}
			rec = Classify(rec, facts.ForDay(empID, rec.Date), s.workday)

			if _, err := s.dailyRepo.Upsert(ctx, rec); err != nil {
				return attendance.ReconcileResponse{}, err
			}
			reconciled++
		}
	}

	return attendance.ReconcileResponse{
		From:            attendance.DateKey(from),
		To:              attendance.DateKey(to),
		ReconciledDays:  reconciled,
		RejectedPunches: rejected,
	}, nil
}

// checkWindow bounds inclusive date-range queries.
func (s *AttendanceService) checkWindow(from, to time.Time) error {
	if from.After(to) {
		return attendance.ErrInvalidDateRange
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > s.query.MaxWindowDays {
		return attendance.ErrWindowTooLarge
	}
	return nil
}

// loadFacts fetches holiday and leave facts for the window. When the provider
// is unavailable the engine degrades rather than misreporting a holiday as
// Absent: classification proceeds on punches alone and records are flagged.
func (s *AttendanceService) loadFacts(ctx context.Context, from, to time.Time, employeeID *string) *calendar.Facts {
	holidays, err := s.calendars.ListHolidays(ctx, from, to)
	if err != nil {
		s.logger.Warn("calendar provider unavailable, degrading classification",
			slog.Any("error", err))
		return calendar.DegradedFacts()
	}
	leaves, err := s.calendars.ListApprovedLeaveDays(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Warn("calendar provider unavailable, degrading classification",
			slog.Any("error", err))
		return calendar.DegradedFacts()
	}
	return calendar.NewFacts(holidays, leaves)
}

func (s *AttendanceService) locationFor(emp employee.Employee) *time.Location {
	if emp.Timezone != "" {
		if loc, err := time.LoadLocation(emp.Timezone); err == nil {
			return loc
		}
		s.logger.Warn("invalid employee timezone, falling back to default",
			slog.String("employee_id", emp.ID),
			slog.String("timezone", emp.Timezone))
	}
	if loc, err := time.LoadLocation(s.workday.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

func toDailyRecordResponse(rec attendance.DailyRecord) attendance.DailyRecordResponse {
	resp := attendance.DailyRecordResponse{
		EmployeeID:       rec.EmployeeID,
		Date:             attendance.DateKey(rec.Date),
		FirstIn:          attendance.FormatPunchTime(rec.FirstIn),
		LastOut:          attendance.FormatPunchTime(rec.LastOut),
		WorkedMinutes:    rec.WorkedMinutes,
		Status:           rec.Status,
		ExpectedMinutes:  rec.ExpectedMinutes,
		CalendarDegraded: rec.CalendarDegraded,
	}
	if rec.EmployeeName != nil {
		resp.EmployeeName = *rec.EmployeeName
	}
	return resp
}
