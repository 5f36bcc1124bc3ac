package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, patient_id, doctor_id, date, time_of_day, status, fee::text, cancel_token, notes,
	patient_complaints, diagnosis, prescription, recommendations, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var fee string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.TimeOfDay, &a.Status, &fee,
		&a.CancelToken, &a.Notes,
		&a.PatientComplaints, &a.Diagnosis, &a.Prescription, &a.Recommendations, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := decimal.NewFromString(fee)
	if err != nil {
		return nil, err
	}
	a.Fee = parsed
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, date, time_of_day, status, fee, cancel_token, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.TimeOfDay, a.Status, a.Fee.StringFixed(2), a.CancelToken, a.Notes)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

// isUniqueViolation matches the partial unique index over non-cancelled
// (doctor_id, date, time_of_day) rows.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointment SET status=$2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateNotes(ctx context.Context, id uuid.UUID, notes ClinicalNotes) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment SET patient_complaints=$2, diagnosis=$3, prescription=$4, recommendations=$5
		WHERE id = $1`,
		id, notes.PatientComplaints, notes.Diagnosis, notes.Prescription, notes.Recommendations)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM appointment WHERE `+col+` = $1
		ORDER BY date DESC, time_of_day DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_of_day FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND status <> $3
		ORDER BY time_of_day`, doctorID, date, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *repoPG) ExistsActive(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND date = $2 AND time_of_day = $3 AND status <> $4
		)`, doctorID, date, timeOfDay, StatusCancelled).Scan(&exists)
	return exists, err
}

func (r *repoPG) CreateSMS(ctx context.Context, m *SMSMessage) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sms_message (id, appointment_id, doctor_id, patient_id, message)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.AppointmentID, m.DoctorID, m.PatientID, m.Message)
	return err
}

func (r *repoPG) ListSMSByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*SMSMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, doctor_id, patient_id, message, sent_at
		FROM sms_message WHERE appointment_id = $1 ORDER BY sent_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SMSMessage
	for rows.Next() {
		var m SMSMessage
		if err := rows.Scan(&m.ID, &m.AppointmentID, &m.DoctorID, &m.PatientID, &m.Message, &m.SentAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
