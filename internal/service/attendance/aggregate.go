package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
)

// monthlyWorkers caps the per-row fan-out when building the monthly matrix.
const monthlyWorkers = 8

// BuildWeekly assembles the 7-day summary starting at weekStart for one
// employee. Days without a materialized record are classified from zero
// punches so a holiday or week-off in a gap still shows up as such instead of
// Absent. The weekly total is always the sum of the seven day entries.
func BuildWeekly(emp employee.Employee, weekStart time.Time, records []attendance.DailyRecord, facts *calendar.Facts, cfg config.WorkdayConfig) attendance.WeeklySummary {
	byDate := make(map[string]attendance.DailyRecord, len(records))
	for _, r := range records {
		byDate[attendance.DateKey(r.Date)] = r
	}

	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	summary := attendance.WeeklySummary{
		EmployeeID: emp.ID,
		WeekStart:  start,
	}

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		rec, ok := byDate[attendance.DateKey(day)]
		if !ok {
			// Reconcile with no punches cannot fail.
			rec, _ = Reconcile(emp.ID, day, time.UTC, nil)
			rec = Classify(rec, facts.ForDay(emp.ID, day), cfg)
		}
		summary.Days[i] = rec
		summary.TotalWorkedMinutes += rec.WorkedMinutes
	}

	return summary
}

// BuildMonthly builds one matrix row per employee for the given month,
// fanning rows out across a bounded worker group. Every calendar day of the
// month gets a cell: a Status where a record exists, the no-data sentinel
// where none does. Gap days are not classified here; the sentinel keeps
// "never reconciled" distinct from a known Absent.
//
// Rows are written by index, so output order matches the employees slice.
func BuildMonthly(ctx context.Context, year int, month time.Month, employees []employee.Employee, records []attendance.DailyRecord, cfg config.WorkdayConfig) ([]attendance.MonthlyMatrix, error) {
	recsByEmployee := make(map[string][]attendance.DailyRecord)
	for _, r := range records {
		recsByEmployee[r.EmployeeID] = append(recsByEmployee[r.EmployeeID], r)
	}

	// Day 0 of the next month is the last day of this one.
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	rows := make([]attendance.MonthlyMatrix, len(employees))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(monthlyWorkers)

	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = buildMonthlyRow(year, month, daysInMonth, emp, recsByEmployee[emp.ID])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

func buildMonthlyRow(year int, month time.Month, daysInMonth int, emp employee.Employee, records []attendance.DailyRecord) attendance.MonthlyMatrix {
	row := attendance.MonthlyMatrix{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Year:         year,
		Month:        month,
		Cells:        make(map[string]string, daysInMonth),
	}

	byDate := make(map[string]attendance.DailyRecord, len(records))
	for _, r := range records {
		byDate[attendance.DateKey(r.Date)] = r
	}

	materialized := 0
	for d := 1; d <= daysInMonth; d++ {
		key := attendance.DateKey(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
		rec, ok := byDate[key]
		if !ok {
			row.Cells[key] = attendance.MatrixNoData
			continue
		}
		materialized++
		row.Cells[key] = string(rec.Status)
		row.TotalWorkedMinutes += rec.WorkedMinutes
		if rec.Status == attendance.StatusPresent {
			row.TotalPresentDays++
		}
	}

	// Completion covers materialized cells only; sentinel days carry no
	// information and must not drag the percentage down.
	if materialized > 0 {
		row.CompletionPercent = decimal.NewFromInt(int64(row.TotalPresentDays)).
			Div(decimal.NewFromInt(int64(materialized))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return row
}
