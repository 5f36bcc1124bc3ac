package doctor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, user_id, department_id, title, active, emergency_doctor,
	working_hours, leave_dates, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var hours, leaves []byte
	err := row.Scan(&d.ID, &d.UserID, &d.DepartmentID, &d.Title, &d.Active, &d.EmergencyDoctor,
		&hours, &leaves, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &d.WorkingHours); err != nil {
			return nil, fmt.Errorf("decode working_hours: %w", err)
		}
	}
	if len(leaves) > 0 {
		if err := json.Unmarshal(leaves, &d.LeaveDates); err != nil {
			return nil, fmt.Errorf("decode leave_dates: %w", err)
		}
	}
	if d.LeaveDates == nil {
		d.LeaveDates = []string{}
	}
	return &d, nil
}

func encodeSchedule(ws schedule.WeekSchedule) ([]byte, error) {
	return json.Marshal(ws)
}

func encodeLeaveDates(dates []string) ([]byte, error) {
	if dates == nil {
		dates = []string{}
	}
	return json.Marshal(dates)
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	hours, err := encodeSchedule(d.WorkingHours)
	if err != nil {
		return err
	}
	leaves, err := encodeLeaveDates(d.LeaveDates)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO doctor (id, user_id, department_id, title, active, emergency_doctor, working_hours, leave_dates)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.UserID, d.DepartmentID, d.Title, d.Active, d.EmergencyDoctor, hours, leaves)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM doctor WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM doctor WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	hours, err := encodeSchedule(d.WorkingHours)
	if err != nil {
		return err
	}
	leaves, err := encodeLeaveDates(d.LeaveDates)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE doctor SET department_id=$2, title=$3, active=$4, emergency_doctor=$5,
			working_hours=$6, leave_dates=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.DepartmentID, d.Title, d.Active, d.EmergencyDoctor, hours, leaves)
	return err
}

func (r *repoPG) UpdateSchedule(ctx context.Context, id uuid.UUID, ws schedule.WeekSchedule) error {
	hours, err := encodeSchedule(ws)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE doctor SET working_hours=$2, updated_at=NOW() WHERE id = $1`, id, hours)
	return err
}

// AddLeaveDate reads the leave set under a row lock so that concurrent
// approvals for the same doctor serialize instead of losing updates.
func (r *repoPG) AddLeaveDate(ctx context.Context, id uuid.UUID, isoDate string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT leave_dates FROM doctor WHERE id = $1 FOR UPDATE`, id).Scan(&raw); err != nil {
		return fmt.Errorf("lock doctor row: %w", err)
	}

	var dates []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &dates); err != nil {
			return fmt.Errorf("decode leave_dates: %w", err)
		}
	}
	for _, d := range dates {
		if d == isoDate {
			return tx.Commit(ctx) // already present, nothing to do
		}
	}
	dates = append(dates, isoDate)

	encoded, err := encodeLeaveDates(dates)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE doctor SET leave_dates=$2, updated_at=NOW() WHERE id = $1`, id, encoded); err != nil {
		return fmt.Errorf("update leave_dates: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM doctor ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM doctor WHERE department_id = $1 AND active ORDER BY created_at`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
