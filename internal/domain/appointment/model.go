package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

// Appointment statuses. Bookings are confirmed immediately, so a freshly
// created appointment is already "completed"; "cancelled" is the only
// other state and rows are never deleted.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment maps to the appointment table. Date is a calendar date and
// TimeOfDay an HH:MM slot time; together with DoctorID they are unique
// among non-cancelled rows.
type Appointment struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	Date        time.Time       `db:"date" json:"date"`
	TimeOfDay   string          `db:"time_of_day" json:"time"`
	Status      string          `db:"status" json:"status"`
	Fee         decimal.Decimal `db:"fee" json:"fee"`
	CancelToken string          `db:"cancel_token" json:"-"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`

	// Clinical notes filled in by the doctor after the visit.
	PatientComplaints *string `db:"patient_complaints" json:"patient_complaints,omitempty"`
	Diagnosis         *string `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription      *string `db:"prescription" json:"prescription,omitempty"`
	Recommendations   *string `db:"recommendations" json:"recommendations,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StartsAt combines Date and TimeOfDay into the appointment's wall-clock
// start in the date's location.
func (a *Appointment) StartsAt() time.Time {
	t, err := time.Parse(schedule.TimeLayout, a.TimeOfDay)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), t.Hour(), t.Minute(), 0, 0, a.Date.Location())
}

// ClinicalNotes is the doctor-entered examination record attached to a
// completed appointment.
type ClinicalNotes struct {
	PatientComplaints *string `json:"patient_complaints,omitempty"`
	Diagnosis         *string `json:"diagnosis,omitempty"`
	Prescription      *string `json:"prescription,omitempty"`
	Recommendations   *string `json:"recommendations,omitempty"`
}

// SMSMessage records a doctor-to-patient SMS tied to an appointment.
type SMSMessage struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Message       string    `db:"message" json:"message"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}
