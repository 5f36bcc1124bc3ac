package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, ws schedule.WeekSchedule) error
	// AddLeaveDate appends the ISO date to the doctor's leave set unless it
	// is already present. Implementations must serialize concurrent calls
	// for the same doctor (row lock) so no update is lost.
	AddLeaveDate(ctx context.Context, id uuid.UUID, isoDate string) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error)
}
