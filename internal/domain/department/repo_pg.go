package department

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, name, description, appointment_fee::text, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	var fee string
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &fee, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(fee)
	if err != nil {
		return nil, err
	}
	d.AppointmentFee = parsed
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO department (id, name, description, appointment_fee)
		VALUES ($1,$2,$3,$4)`,
		d.ID, d.Name, d.Description, d.AppointmentFee.StringFixed(2))
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDepartment(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM department WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Department) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE department SET name=$2, description=$3, appointment_fee=$4, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Description, d.AppointmentFee.StringFixed(2))
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM department WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Department, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM department`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM department ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
