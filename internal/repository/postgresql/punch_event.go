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

type punchEventRepository struct {
	db *database.DB
}

func NewPunchEventRepository(db *database.DB) attendance.PunchEventRepository {
	return &punchEventRepository{db: db}
}

// Append implements attendance.PunchEventRepository. Exact duplicates of the
// (employee_id, device_id, ts) tuple are dropped by the unique constraint.
func (r *punchEventRepository) Append(ctx context.Context, events []attendance.PunchEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	inserted := 0
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO punch_events (id, employee_id, device_id, ts, synced_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (employee_id, device_id, ts) DO NOTHING
		`
		for _, e := range events {
			tag, err := tx.Exec(ctx, query, e.ID, e.EmployeeID, e.DeviceID, e.Timestamp, e.SyncedAt)
			if err != nil {
				return fmt.Errorf("failed to append punch event: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// ListForDay implements attendance.PunchEventRepository.
func (r *punchEventRepository) ListForDay(ctx context.Context, employeeID string, dayStart, dayEnd time.Time) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, device_id, ts, synced_at
		FROM punch_events
		WHERE employee_id = $1
		  AND ts >= $2
		  AND ts < $3
		ORDER BY ts ASC
	`

	rows, err := q.Query(ctx, query, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events for day: %w", err)
	}
	defer rows.Close()

	return scanPunchEvents(rows, false)
}

// ListRange implements attendance.PunchEventRepository.
func (r *punchEventRepository) ListRange(ctx context.Context, from, to time.Time, employeeID *string) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, device_id, ts, synced_at
		FROM punch_events
		WHERE ts >= $1
		  AND ts < $2
	`
	args := []interface{}{from, to}

	if employeeID != nil && *employeeID != "" {
		query += ` AND employee_id = $3`
		args = append(args, *employeeID)
	}
	query += ` ORDER BY ts ASC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events in range: %w", err)
	}
	defer rows.Close()

	return scanPunchEvents(rows, false)
}

// ListLog implements attendance.PunchEventRepository. The date filter matches
// each punch against its employee's local calendar date, so the audit trail
// reads the same way the reconciled records do.
func (r *punchEventRepository) ListLog(ctx context.Context, filter attendance.ActivityLogFilter) ([]attendance.PunchEvent, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{
		`(p.ts AT TIME ZONE 'UTC' AT TIME ZONE COALESCE(e.timezone, 'UTC'))::date BETWEEN $1 AND $2`,
	}
	args := []interface{}{filter.From, filter.To}
	argIdx := 3

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("p.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM punch_events p
		LEFT JOIN employees e ON e.id = p.employee_id
		%s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count punch events: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf(`
		SELECT p.id, p.employee_id, p.device_id, p.ts, p.synced_at,
			   e.full_name AS employee_name,
			   e.code AS employee_code
		FROM punch_events p
		LEFT JOIN employees e ON e.id = p.employee_id
		%s
		ORDER BY p.ts ASC, p.employee_id ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list punch events: %w", err)
	}
	defer rows.Close()

	events, err := scanPunchEvents(rows, true)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// LastSyncedAt implements attendance.PunchEventRepository.
func (r *punchEventRepository) LastSyncedAt(ctx context.Context) (*time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT MAX(synced_at) FROM punch_events`

	var last *time.Time
	if err := q.QueryRow(ctx, query).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last synced at: %w", err)
	}

	return last, nil
}

func scanPunchEvents(rows pgx.Rows, withEmployee bool) ([]attendance.PunchEvent, error) {
	var events []attendance.PunchEvent
	for rows.Next() {
		var e attendance.PunchEvent
		var err error
		if withEmployee {
			err = rows.Scan(&e.ID, &e.EmployeeID, &e.DeviceID, &e.Timestamp, &e.SyncedAt, &e.EmployeeName, &e.EmployeeCode)
		} else {
			err = rows.Scan(&e.ID, &e.EmployeeID, &e.DeviceID, &e.Timestamp, &e.SyncedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch events: %w", err)
	}
	return events, nil
}
