package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, doctor_id, requested_date, reason, status, reviewed_by, reviewed_at, admin_notes, created_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.DoctorID, &r.RequestedDate, &r.Reason, &r.Status,
		&r.ReviewedBy, &r.ReviewedAt, &r.AdminNotes, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	req.Status = StatusPending
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leave_request (id, doctor_id, requested_date, reason, status)
		VALUES ($1,$2,$3,$4,$5)`,
		req.ID, req.DoctorID, req.RequestedDate, req.Reason, req.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM leave_request WHERE id = $1`, id))
}

// MarkReviewed guards the transition in SQL: only a pending row moves, so
// two racing reviewers cannot both win.
func (r *repoPG) MarkReviewed(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time, adminNotes *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leave_request SET status=$2, reviewed_by=$3, reviewed_at=$4, admin_notes=$5
		WHERE id = $1 AND status = $6`,
		id, status, reviewerID, reviewedAt, adminNotes, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyReviewed
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Request, int, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID, limit, offset)
}

func (r *repoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Request, int, error) {
	return r.list(ctx, `status = $1`, status, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, arg any, limit, offset int) ([]*Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leave_request WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM leave_request WHERE `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, req)
	}
	return items, total, rows.Err()
}
