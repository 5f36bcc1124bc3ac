package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

// Doctor maps to the doctor table. WorkingHours is the typed weekly
// schedule (0=Monday .. 6=Sunday) and LeaveDates the set of ISO dates the
// doctor is off regardless of the weekly schedule. A doctor flagged for
// the emergency service carries no department.
type Doctor struct {
	ID              uuid.UUID             `db:"id" json:"id"`
	UserID          uuid.UUID             `db:"user_id" json:"user_id"`
	DepartmentID    *uuid.UUID            `db:"department_id" json:"department_id,omitempty"`
	Title           *string               `db:"title" json:"title,omitempty"`
	Active          bool                  `db:"active" json:"active"`
	EmergencyDoctor bool                  `db:"emergency_doctor" json:"emergency_doctor"`
	WorkingHours    schedule.WeekSchedule `db:"working_hours" json:"working_hours"`
	LeaveDates      []string              `db:"leave_dates" json:"leave_dates"`
	CreatedAt       time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time             `db:"updated_at" json:"updated_at"`
}

// HasLeaveDate reports whether the ISO date is already in the leave set.
func (d *Doctor) HasLeaveDate(iso string) bool {
	for _, ld := range d.LeaveDates {
		if ld == iso {
			return true
		}
	}
	return false
}
