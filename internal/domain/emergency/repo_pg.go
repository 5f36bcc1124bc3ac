package emergency

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

// The table holds a single row keyed by id=1; Save upserts it.

func (r *repoPG) Load(ctx context.Context) (*Status, error) {
	var s Status
	err := r.pool.QueryRow(ctx, `
		SELECT open, available_247, phone, address, notes, updated_at
		FROM emergency_status WHERE id = 1`).
		Scan(&s.Open, &s.Available247, &s.Phone, &s.Address, &s.Notes, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Save(ctx context.Context, s *Status) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_status (id, open, available_247, phone, address, notes, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET open = EXCLUDED.open, available_247 = EXCLUDED.available_247,
			phone = EXCLUDED.phone, address = EXCLUDED.address,
			notes = EXCLUDED.notes, updated_at = NOW()`,
		s.Open, s.Available247, s.Phone, s.Address, s.Notes)
	return err
}
