package appointment

import (
	"errors"
	"fmt"
)

// Business-rule violations surfaced by the booking validator and the
// cancellation flow. None of these are transient; callers should not retry.
var (
	ErrClosedWeekend     = errors.New("the hospital is closed on weekends")
	ErrDoctorUnavailable = errors.New("doctor is not working or is on leave on this date")
	ErrSlotTaken         = errors.New("an appointment already exists for this time slot")
	ErrInvalidToken      = errors.New("invalid or missing cancellation token")
	ErrAlreadyCancelled  = errors.New("appointment is already cancelled")
	ErrTooLateToCancel   = errors.New("appointments can only be cancelled up to 6 hours in advance")
	ErrNotFound          = errors.New("appointment not found")
)

// OutsideWorkingHoursError rejects a booking time that falls outside the
// doctor's working window for that weekday. It carries the valid window so
// the caller can present it.
type OutsideWorkingHoursError struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (e *OutsideWorkingHoursError) Error() string {
	return fmt.Sprintf("requested time is outside working hours (%s - %s)", e.Start, e.End)
}
