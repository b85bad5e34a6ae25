package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/calendar"
)

// HalfDayThresholdMinutes is the presence boundary: a day with at least this
// much worked time is Present, anything above zero but below it is HalfDay.
// Every consumer must go through Classify rather than re-deriving this.
const HalfDayThresholdMinutes = 240

// Classify assigns status and expected minutes to a pre-status DailyRecord.
//
// Precedence is fixed and must not be reordered:
//  1. holiday
//  2. approved leave
//  3. week-off (Sunday)
//  4. computed from punches
//
// When facts are calendar-degraded, rules 1-2 are skipped and the record is
// flagged so consumers can warn that a holiday may be misreported.
func Classify(rec attendance.DailyRecord, facts calendar.DayFacts, cfg config.WorkdayConfig) attendance.DailyRecord {
	rec.CalendarDegraded = facts.Degraded

	if !facts.Degraded {
		if facts.Holiday != nil {
			rec.Status = attendance.StatusHoliday
			rec.ExpectedMinutes = 0
			return rec
		}
		if facts.OnLeave {
			rec.Status = attendance.StatusLeave
			rec.ExpectedMinutes = 0
			return rec
		}
	}

	if rec.Date.Weekday() == time.Sunday {
		rec.Status = attendance.StatusWeekOff
		rec.ExpectedMinutes = 0
		return rec
	}

	if rec.Date.Weekday() == time.Saturday {
		rec.ExpectedMinutes = cfg.SaturdayExpectedMinutes
	} else {
		rec.ExpectedMinutes = cfg.WeekdayExpectedMinutes
	}

	if rec.FirstIn == nil {
		rec.Status = attendance.StatusAbsent
		return rec
	}

	if rec.WorkedMinutes >= HalfDayThresholdMinutes {
		rec.Status = attendance.StatusPresent
		return rec
	}
	if rec.WorkedMinutes > 0 {
		rec.Status = attendance.StatusHalfDay
		return rec
	}

	// Punched in with no punch-out yet: reported as Present with a nil
	// last_out so UIs can render "Working...". Not a separate status value.
	rec.Status = attendance.StatusPresent
	return rec
}
