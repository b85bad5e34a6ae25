package calendar

import "time"

// HolidayFact is calendar truth supplied by the holiday list collaborator.
// The engine never edits it.
type HolidayFact struct {
	Date time.Time
	Name string
	Type string
}

// LeaveFact marks a single day covered by an approved leave request, already
// expanded from the request's date range by the leave workflow collaborator.
type LeaveFact struct {
	EmployeeID string
	Date       time.Time
}

// DayFacts is the calendar input for classifying one (employee, date).
type DayFacts struct {
	Holiday *HolidayFact
	OnLeave bool

	// Degraded is set when the calendar provider was unavailable and the
	// holiday/leave precedence rules had to be skipped.
	Degraded bool
}

// Facts is a window of calendar data, indexed for per-day lookup.
type Facts struct {
	holidays map[string]HolidayFact
	leaves   map[string]map[string]bool // employeeID -> dateKey -> true
	degraded bool
}

// NewFacts indexes holidays and leave days for lookup.
func NewFacts(holidays []HolidayFact, leaves []LeaveFact) *Facts {
	f := &Facts{
		holidays: make(map[string]HolidayFact, len(holidays)),
		leaves:   make(map[string]map[string]bool),
	}
	for _, h := range holidays {
		f.holidays[dateKey(h.Date)] = h
	}
	for _, l := range leaves {
		if f.leaves[l.EmployeeID] == nil {
			f.leaves[l.EmployeeID] = make(map[string]bool)
		}
		f.leaves[l.EmployeeID][dateKey(l.Date)] = true
	}
	return f
}

// DegradedFacts marks every lookup as calendar-degraded: classification
// proceeds on punches alone rather than misreporting a holiday as Absent.
func DegradedFacts() *Facts {
	return &Facts{degraded: true}
}

// ForDay resolves the calendar facts for one (employee, date).
func (f *Facts) ForDay(employeeID string, date time.Time) DayFacts {
	if f.degraded {
		return DayFacts{Degraded: true}
	}
	facts := DayFacts{}
	if h, ok := f.holidays[dateKey(date)]; ok {
		holiday := h
		facts.Holiday = &holiday
	}
	if days, ok := f.leaves[employeeID]; ok && days[dateKey(date)] {
		facts.OnLeave = true
	}
	return facts
}

// Degraded reports whether this window was built without calendar data.
func (f *Facts) Degraded() bool {
	return f.degraded
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
