package attendance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== FAKES =====

type fakePunchRepo struct {
	events   []attendance.PunchEvent
	lastSync *time.Time
}

func (r *fakePunchRepo) Append(ctx context.Context, events []attendance.PunchEvent) (int, error) {
	r.events = append(r.events, events...)
	return len(events), nil
}

func (r *fakePunchRepo) ListForDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]attendance.PunchEvent, error) {
	var out []attendance.PunchEvent
	for _, e := range r.events {
		if e.EmployeeID == employeeID && !e.Timestamp.Before(dayStart) && e.Timestamp.Before(dayEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePunchRepo) ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]attendance.PunchEvent, error) {
	var out []attendance.PunchEvent
	for _, e := range r.events {
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) {
			continue
		}
		if employeeID != nil && *employeeID != "" && e.EmployeeID != *employeeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakePunchRepo) ListLog(ctx context.Context, filter attendance.ActivityLogFilter) ([]attendance.PunchEvent, int64, error) {
	return r.events, int64(len(r.events)), nil
}

func (r *fakePunchRepo) LastSyncedAt(ctx context.Context) (*time.Time, error) {
	return r.lastSync, nil
}

type fakeDailyRepo struct {
	records    map[string]attendance.DailyRecord // employeeID|dateKey
	lastFilter attendance.ListFilter
}

func newFakeDailyRepo() *fakeDailyRepo {
	return &fakeDailyRepo{records: make(map[string]attendance.DailyRecord)}
}

func dailyKey(employeeID string, date time.Time) string {
	return employeeID + "|" + attendance.DateKey(date)
}

func (r *fakeDailyRepo) Upsert(ctx context.Context, rec attendance.DailyRecord) (attendance.DailyRecord, error) {
	r.records[dailyKey(rec.EmployeeID, rec.Date)] = rec
	return rec, nil
}

func (r *fakeDailyRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.DailyRecord, error) {
	if rec, ok := r.records[dailyKey(employeeID, date)]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (r *fakeDailyRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.DailyRecord, int64, error) {
	r.lastFilter = filter
	return nil, 0, nil
}

func (r *fakeDailyRepo) ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]attendance.DailyRecord, error) {
	var out []attendance.DailyRecord
	for _, rec := range r.records {
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		if employeeID != nil && *employeeID != "" && rec.EmployeeID != *employeeID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo(emps ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	for _, e := range emps {
		r.employees[e.ID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if e, ok := r.employees[id]; ok {
		return e, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) Search(ctx context.Context, query string) ([]employee.Employee, error) {
	return nil, nil
}

type fakeCalendar struct {
	holidays []calendar.HolidayFact
	leaves   []calendar.LeaveFact
	err      error
}

func (c *fakeCalendar) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.HolidayFact, error) {
	return c.holidays, c.err
}

func (c *fakeCalendar) ListApprovedLeaveDays(ctx context.Context, employeeID *string, from, to time.Time) ([]calendar.LeaveFact, error) {
	return c.leaves, c.err
}

// ===== HELPERS =====

func newTestService(punchRepo *fakePunchRepo, dailyRepo *fakeDailyRepo, empRepo *fakeEmployeeRepo, cal *fakeCalendar) *AttendanceService {
	return NewAttendanceService(
		punchRepo,
		dailyRepo,
		empRepo,
		cal,
		testWorkday,
		config.QueryConfig{MaxWindowDays: 92},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func authedContext(t *testing.T, employeeID string, role jwt.Role) context.Context {
	t.Helper()

	builder := jwxjwt.NewBuilder().
		Claim("role", string(role)).
		Claim("type", "access")
	if employeeID != "" {
		builder = builder.Claim("employee_id", employeeID)
	}
	token, err := builder.Build()
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}

// ===== TESTS =====

func TestToday_DegradedCalendarFallsBackToStoredRecord(t *testing.T) {
	t.Parallel()

	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "UTC", Active: true}
	dailyRepo := newFakeDailyRepo()
	svc := newTestService(&fakePunchRepo{}, dailyRepo, newFakeEmployeeRepo(emp), &fakeCalendar{err: calendar.ErrUnavailable})

	// Today was already reconciled as a Holiday while the calendar was up.
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	_, err := dailyRepo.Upsert(context.Background(), attendance.DailyRecord{
		EmployeeID:      "emp-1",
		Date:            today,
		Status:          attendance.StatusHoliday,
		ExpectedMinutes: 0,
	})
	require.NoError(t, err)

	ctx := authedContext(t, "emp-1", jwt.RoleEmployee)
	result, err := svc.Today(ctx, attendance.TodayRequest{})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusHoliday, result.Record.Status)
	assert.False(t, result.Record.CalendarDegraded)
}

func TestToday_DegradedCalendarWithoutStoredRecordStaysFlagged(t *testing.T) {
	t.Parallel()

	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "UTC", Active: true}
	svc := newTestService(&fakePunchRepo{}, newFakeDailyRepo(), newFakeEmployeeRepo(emp), &fakeCalendar{err: calendar.ErrUnavailable})

	ctx := authedContext(t, "emp-1", jwt.RoleEmployee)
	result, err := svc.Today(ctx, attendance.TodayRequest{})
	require.NoError(t, err)

	assert.True(t, result.Record.CalendarDegraded)
}

func TestList_EmployeeIsForcedToOwnRecords(t *testing.T) {
	t.Parallel()

	dailyRepo := newFakeDailyRepo()
	svc := newTestService(&fakePunchRepo{}, dailyRepo, newFakeEmployeeRepo(), &fakeCalendar{})

	ctx := authedContext(t, "emp-1", jwt.RoleEmployee)
	other := "emp-2"

	_, err := svc.List(ctx, attendance.ListFilter{Month: 3, Year: 2026, EmployeeID: &other})
	require.NoError(t, err)

	require.NotNil(t, dailyRepo.lastFilter.EmployeeID)
	assert.Equal(t, "emp-1", *dailyRepo.lastFilter.EmployeeID)
}

func TestList_AdminSeesAllEmployees(t *testing.T) {
	t.Parallel()

	dailyRepo := newFakeDailyRepo()
	svc := newTestService(&fakePunchRepo{}, dailyRepo, newFakeEmployeeRepo(), &fakeCalendar{})

	ctx := authedContext(t, "", jwt.RoleAdmin)

	_, err := svc.List(ctx, attendance.ListFilter{Month: 3, Year: 2026})
	require.NoError(t, err)
	assert.Nil(t, dailyRepo.lastFilter.EmployeeID)
}

func TestMonthly_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakePunchRepo{}, newFakeDailyRepo(), newFakeEmployeeRepo(), &fakeCalendar{})

	ctx := authedContext(t, "emp-1", jwt.RoleEmployee)
	_, err := svc.Monthly(ctx, attendance.MonthlyFilter{Month: 3, Year: 2026})
	assert.ErrorIs(t, err, attendance.ErrScopeForbidden)
}

func TestReconcileRange_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakePunchRepo{}, newFakeDailyRepo(), newFakeEmployeeRepo(), &fakeCalendar{})

	ctx := authedContext(t, "emp-1", jwt.RoleEmployee)
	_, err := svc.ReconcileRange(ctx, attendance.ReconcileRequest{From: "2026-03-01", To: "2026-03-07"})
	assert.ErrorIs(t, err, attendance.ErrScopeForbidden)
}

func TestActivityLog_WindowChecks(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakePunchRepo{}, newFakeDailyRepo(), newFakeEmployeeRepo(), &fakeCalendar{})
	ctx := authedContext(t, "", jwt.RoleAdmin)

	_, err := svc.ActivityLog(ctx, attendance.ActivityLogFilter{From: "2026-03-07", To: "2026-03-01"})
	assert.ErrorIs(t, err, attendance.ErrInvalidDateRange)

	_, err = svc.ActivityLog(ctx, attendance.ActivityLogFilter{From: "2025-01-01", To: "2026-03-01"})
	assert.ErrorIs(t, err, attendance.ErrWindowTooLarge)
}

func TestReconcileWindow_WritesClassifiedRecords(t *testing.T) {
	t.Parallel()

	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "UTC", Active: true}
	punchRepo := &fakePunchRepo{events: []attendance.PunchEvent{
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 9, 2, 0, 0, time.UTC)},
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 13, 10, 0, 0, time.UTC)},
		{EmployeeID: "ghost", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)},
	}}
	dailyRepo := newFakeDailyRepo()
	svc := newTestService(punchRepo, dailyRepo, newFakeEmployeeRepo(emp), &fakeCalendar{})

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	result, err := svc.ReconcileWindow(context.Background(), from, from, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ReconciledDays)
	assert.Equal(t, 1, result.RejectedPunches, "unknown badge is rejected, not fatal")

	rec, err := dailyRepo.GetByEmployeeAndDate(context.Background(), "emp-1", from)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 248, rec.WorkedMinutes)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
}

func TestReconcileWindow_DegradesWhenCalendarUnavailable(t *testing.T) {
	t.Parallel()

	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "UTC", Active: true}
	punchRepo := &fakePunchRepo{events: []attendance.PunchEvent{
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)},
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC)},
	}}
	dailyRepo := newFakeDailyRepo()
	svc := newTestService(punchRepo, dailyRepo, newFakeEmployeeRepo(emp), &fakeCalendar{err: calendar.ErrUnavailable})

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.ReconcileWindow(context.Background(), from, from, nil)
	require.NoError(t, err)

	rec, err := dailyRepo.GetByEmployeeAndDate(context.Background(), "emp-1", from)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.CalendarDegraded)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
}

func TestReconcileWindow_LateUTCPunchLandsOnNextLocalDay(t *testing.T) {
	t.Parallel()

	// 2026-03-01T23:00Z is 06:00 on 2026-03-02 in Jakarta (UTC+7). With the
	// day of slack the sync job adds around the punch span, the record must
	// materialize on the local day, not be skipped.
	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "Asia/Jakarta", Active: true}
	punch := time.Date(2026, time.March, 1, 23, 0, 0, 0, time.UTC)
	punchRepo := &fakePunchRepo{events: []attendance.PunchEvent{
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: punch},
	}}
	dailyRepo := newFakeDailyRepo()
	svc := newTestService(punchRepo, dailyRepo, newFakeEmployeeRepo(emp), &fakeCalendar{})

	result, err := svc.ReconcileWindow(context.Background(), punch.AddDate(0, 0, -1), punch.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReconciledDays)

	localDay := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	rec, err := dailyRepo.GetByEmployeeAndDate(context.Background(), "emp-1", localDay)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.True(t, rec.Open())
}

func TestReconcileWindow_Idempotent(t *testing.T) {
	t.Parallel()

	emp := employee.Employee{ID: "emp-1", Code: "1000-0001", FullName: "Ayu Lestari", Timezone: "UTC", Active: true}
	punchRepo := &fakePunchRepo{events: []attendance.PunchEvent{
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)},
		{EmployeeID: "emp-1", DeviceID: "dev-1", Timestamp: time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC)},
	}}
	dailyRepo := newFakeDailyRepo()
	svc := newTestService(punchRepo, dailyRepo, newFakeEmployeeRepo(emp), &fakeCalendar{})

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	first, err := svc.ReconcileWindow(context.Background(), from, from, nil)
	require.NoError(t, err)
	recAfterFirst, _ := dailyRepo.GetByEmployeeAndDate(context.Background(), "emp-1", from)

	second, err := svc.ReconcileWindow(context.Background(), from, from, nil)
	require.NoError(t, err)
	recAfterSecond, _ := dailyRepo.GetByEmployeeAndDate(context.Background(), "emp-1", from)

	assert.Equal(t, first, second)
	assert.Equal(t, recAfterFirst, recAfterSecond)
}
