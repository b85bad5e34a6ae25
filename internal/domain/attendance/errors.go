package attendance

import "errors"

// Attendance domain errors
var (
	// Query layer errors
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrWindowTooLarge   = errors.New("date range exceeds the maximum query window")
	ErrRecordNotFound   = errors.New("attendance record not found")

	// Reconciliation errors
	ErrPunchOutsideDay   = errors.New("punch timestamp falls outside its claimed calendar date")
	ErrMissingEmployeeID = errors.New("punch is missing an employee id")

	// Authorization errors
	ErrScopeForbidden = errors.New("not allowed to access another employee's records")

	// Sync errors
	ErrSyncInProgress = errors.New("a device sync is already running for this organization")
)
