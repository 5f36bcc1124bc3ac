package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/appointment"
	"github.com/hospital/hospital-api/internal/domain/identity"
)

// Directory is the slice of the identity service the resolver needs.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	FindByNationalID(ctx context.Context, nationalID string) (*identity.User, error)
	CreatePatient(ctx context.Context, p identity.NewPatient) (*identity.User, error)
	UpdateContact(ctx context.Context, u *identity.User) error
}

// Resolver matches booker-supplied details to an existing patient account
// or creates one. Email is the primary key of the match, national id the
// fallback; both misses mean a new patient.
type Resolver struct {
	users Directory
}

func NewResolver(users Directory) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(ctx context.Context, details appointment.PatientDetails) (uuid.UUID, error) {
	if details.Email == "" {
		return uuid.Nil, fmt.Errorf("patient email is required")
	}
	if details.FirstName == "" || details.LastName == "" {
		return uuid.Nil, fmt.Errorf("patient name is required")
	}

	u, err := r.users.FindByEmail(ctx, details.Email)
	if err == nil {
		return u.ID, r.refreshContact(ctx, u, details)
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return uuid.Nil, err
	}

	if details.NationalID != "" {
		u, err = r.users.FindByNationalID(ctx, details.NationalID)
		if err == nil {
			return u.ID, r.refreshContact(ctx, u, details)
		}
		if !errors.Is(err, identity.ErrNotFound) {
			return uuid.Nil, err
		}
	}

	created, err := r.users.CreatePatient(ctx, identity.NewPatient{
		FirstName:  details.FirstName,
		LastName:   details.LastName,
		Email:      details.Email,
		NationalID: optional(details.NationalID),
		Phone:      optional(details.Phone),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create patient: %w", err)
	}
	return created.ID, nil
}

// refreshContact keeps the record current with what the booker just
// typed, filling blanks and updating the phone. The email is never
// rewritten from a national-id match.
func (r *Resolver) refreshContact(ctx context.Context, u *identity.User, details appointment.PatientDetails) error {
	changed := false
	if details.Phone != "" && (u.Phone == nil || *u.Phone != details.Phone) {
		u.Phone = optional(details.Phone)
		changed = true
	}
	if details.NationalID != "" && u.NationalID == nil {
		u.NationalID = optional(details.NationalID)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.users.UpdateContact(ctx, u)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
