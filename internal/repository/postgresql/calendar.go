package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type calendarProvider struct {
	db *database.DB
}

// NewCalendarProvider reads the holiday and leave tables maintained by the
// calendar and leave workflow collaborators.
func NewCalendarProvider(db *database.DB) calendar.Provider {
	return &calendarProvider{db: db}
}

// ListHolidays implements calendar.Provider.
func (p *calendarProvider) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.HolidayFact, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT date, name, type
		FROM holidays
		WHERE date >= $1
		  AND date <= $2
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list holidays: %v", calendar.ErrUnavailable, err)
	}
	defer rows.Close()

	var holidays []calendar.HolidayFact
	for rows.Next() {
		var h calendar.HolidayFact
		if err := rows.Scan(&h.Date, &h.Name, &h.Type); err != nil {
			return nil, fmt.Errorf("%w: failed to scan holiday: %v", calendar.ErrUnavailable, err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate holidays: %v", calendar.ErrUnavailable, err)
	}

	return holidays, nil
}

// ListApprovedLeaveDays implements calendar.Provider. The leave workflow
// expands approved requests into one row per covered day.
func (p *calendarProvider) ListApprovedLeaveDays(ctx context.Context, employeeID *string, from, to time.Time) ([]calendar.LeaveFact, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT employee_id, date
		FROM leave_days
		WHERE date >= $1
		  AND date <= $2
	`
	args := []interface{}{from, to}

	if employeeID != nil && *employeeID != "" {
		query += ` AND employee_id = $3`
		args = append(args, *employeeID)
	}
	query += ` ORDER BY date ASC, employee_id ASC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list leave days: %v", calendar.ErrUnavailable, err)
	}
	defer rows.Close()

	var leaves []calendar.LeaveFact
	for rows.Next() {
		var l calendar.LeaveFact
		if err := rows.Scan(&l.EmployeeID, &l.Date); err != nil {
			return nil, fmt.Errorf("%w: failed to scan leave day: %v", calendar.ErrUnavailable, err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate leave days: %v", calendar.ErrUnavailable, err)
	}

	return leaves, nil
}
