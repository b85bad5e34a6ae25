package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type dailyRecordRepository struct {
	db *database.DB
}

func NewDailyRecordRepository(db *database.DB) attendance.DailyRecordRepository {
	return &dailyRecordRepository{db: db}
}

// Upsert implements attendance.DailyRecordRepository. Reconciliation is
// deterministic, so last writer wins on the (employee_id, date) key.
func (r *dailyRecordRepository) Upsert(ctx context.Context, rec attendance.DailyRecord) (attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_records (
			employee_id, date, first_in, last_out, worked_minutes,
			status, expected_minutes, calendar_degraded
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			first_in = EXCLUDED.first_in,
			last_out = EXCLUDED.last_out,
			worked_minutes = EXCLUDED.worked_minutes,
			status = EXCLUDED.status,
			expected_minutes = EXCLUDED.expected_minutes,
			calendar_degraded = EXCLUDED.calendar_degraded,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.EmployeeID,
		rec.Date,
		rec.FirstIn,
		rec.LastOut,
		rec.WorkedMinutes,
		rec.Status,
		rec.ExpectedMinutes,
		rec.CalendarDegraded,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("failed to upsert daily record: %w", err)
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, first_in, last_out, worked_minutes,
			   status, expected_minutes, calendar_degraded, created_at, updated_at
		FROM daily_records
		WHERE employee_id = $1
		  AND date = $2
		LIMIT 1
	`

	var rec attendance.DailyRecord
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.FirstIn, &rec.LastOut, &rec.WorkedMinutes,
		&rec.Status, &rec.ExpectedMinutes, &rec.CalendarDegraded, &rec.CreatedAt, &rec.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // No materialized record for this day
		}
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}

	return &rec, nil
}

// List implements attendance.DailyRecordRepository. Pagination metadata is
// computed over the filtered set.
func (r *dailyRecordRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.DailyRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{
		"EXTRACT(MONTH FROM d.date) = $1",
		"EXTRACT(YEAR FROM d.date) = $2",
	}
	args := []interface{}{filter.Month, filter.Year}
	argIdx := 3

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("d.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(e.full_name ILIKE $%d OR e.code ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM daily_records d
		LEFT JOIN employees e ON e.id = d.employee_id
		%s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count daily records: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf(`
		SELECT d.id, d.employee_id, d.date, d.first_in, d.last_out, d.worked_minutes,
			   d.status, d.expected_minutes, d.calendar_degraded, d.created_at, d.updated_at,
			   e.full_name AS employee_name,
			   e.code AS employee_code
		FROM daily_records d
		LEFT JOIN employees e ON e.id = d.employee_id
		%s
		ORDER BY d.date ASC, d.employee_id ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer rows.Close()

	var records []attendance.DailyRecord
	for rows.Next() {
		var rec attendance.DailyRecord
		if err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.FirstIn, &rec.LastOut, &rec.WorkedMinutes,
			&rec.Status, &rec.ExpectedMinutes, &rec.CalendarDegraded, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName, &rec.EmployeeCode,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan daily record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate daily records: %w", err)
	}

	return records, total, nil
}

// ListRange implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, first_in, last_out, worked_minutes,
			   status, expected_minutes, calendar_degraded, created_at, updated_at
		FROM daily_records
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
		return nil, fmt.Errorf("failed to list daily records in range: %w", err)
	}
	defer rows.Close()

	var records []attendance.DailyRecord
	for rows.Next() {
		var rec attendance.DailyRecord
		if err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.FirstIn, &rec.LastOut, &rec.WorkedMinutes,
			&rec.Status, &rec.ExpectedMinutes, &rec.CalendarDegraded, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily records: %w", err)
	}

	return records, nil
}
