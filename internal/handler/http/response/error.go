package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, attendance.ErrScopeForbidden):
		Forbidden(w, "Not allowed to access another employee's records")

	// Query layer errors
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, "Start date must not be after end date", nil)
	case errors.Is(err, attendance.ErrWindowTooLarge):
		BadRequest(w, "Date range exceeds the maximum query window", nil)
	case errors.Is(err, attendance.ErrMissingEmployeeID):
		BadRequest(w, "Employee id is required", nil)
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Reconciliation and sync errors
	case errors.Is(err, attendance.ErrPunchOutsideDay):
		BadRequest(w, "Punch timestamp falls outside its calendar date", nil)
	case errors.Is(err, attendance.ErrSyncInProgress):
		Conflict(w, "A device sync is already running for this organization")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
