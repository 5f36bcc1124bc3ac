package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, appointment_id, doctor_id, title, content, created_at, updated_at`

func scanReport(row pgx.Row) (*MedicalReport, error) {
	var r MedicalReport
	err := row.Scan(&r.ID, &r.AppointmentID, &r.DoctorID, &r.Title, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, m *MedicalReport) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_report (id, appointment_id, doctor_id, title, content)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.AppointmentID, m.DoctorID, m.Title, m.Content)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrReportExists
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM medical_report WHERE id = $1`, id))
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalReport, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM medical_report WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) Update(ctx context.Context, m *MedicalReport) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_report SET title=$2, content=$3, updated_at=NOW() WHERE id = $1`,
		m.ID, m.Title, m.Content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medical_report WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM medical_report WHERE doctor_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalReport
	for rows.Next() {
		m, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
