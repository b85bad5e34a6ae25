package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
)

// Reconcile folds all punch timestamps for one employee on one calendar day
// into a single pre-status DailyRecord. It is a pure function: no prior state
// is consulted, and running it twice on the same punch set yields identical
// output.
//
// first_in is the earliest punch, last_out the latest. A single punch means
// the employee has not punched out yet: last_out stays nil and worked minutes
// stay 0. Punches strictly between first and last are ignored; a day is one
// in/out session, min/max over all punches (sum-of-intervals for lunch-break
// re-entry is a known gap, kept as-is to preserve recorded history).
//
// A punch outside [day 00:00, day+1 00:00) in loc is a data error and rejects
// the whole day; the caller decides whether to drop the offending punch at
// ingestion instead.
func Reconcile(employeeID string, day time.Time, loc *time.Location, punches []time.Time) (attendance.DailyRecord, error) {
	if loc == nil {
		loc = time.UTC
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rec := attendance.DailyRecord{
		EmployeeID: employeeID,
		// Calendar date only; stored at UTC midnight so the key survives
		// timezone round-trips.
		Date: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
	}

	if len(punches) == 0 {
		return rec, nil
	}

	ts := make([]time.Time, len(punches))
	copy(ts, punches)
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })

	for _, t := range ts {
		if t.Before(dayStart) || !t.Before(dayEnd) {
			return attendance.DailyRecord{}, fmt.Errorf(
				"%w: punch %s does not belong to %s (%s)",
				attendance.ErrPunchOutsideDay,
				t.Format(time.RFC3339),
				dayStart.Format("2006-01-02"),
				loc.String(),
			)
		}
	}

	firstIn := ts[0]
	rec.FirstIn = &firstIn

	if len(ts) >= 2 {
		lastOut := ts[len(ts)-1]
		rec.LastOut = &lastOut
		rec.WorkedMinutes = int(lastOut.Sub(firstIn).Minutes())
	}

	return rec, nil
}
