package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/platform/auth"
)

// DoctorProvisioner creates the doctor profile when a doctor-role user is
// registered.
type DoctorProvisioner interface {
	Provision(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

// Notifier delivers the password-reset message. Failures are logged by
// the implementation, never surfaced to the caller.
type Notifier interface {
	PasswordReset(ctx context.Context, u *User, token string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) PasswordReset(context.Context, *User, string) {}

const (
	defaultTokenTTL = 12 * time.Hour
	resetTokenTTL   = 24 * time.Hour
)

type Service struct {
	repo     Repository
	doctors  DoctorProvisioner
	notifier Notifier

	jwtSecret []byte
	tokenTTL  time.Duration

	now func() time.Time
}

func NewService(repo Repository, doctors DoctorProvisioner, notifier Notifier, jwtSecret []byte) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:      repo,
		doctors:   doctors,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  defaultTokenTTL,
		now:       time.Now,
	}
}

type CreateUserParams struct {
	Username   string
	Email      string
	NationalID *string
	Phone      *string
	FirstName  string
	LastName   string
	Role       string
	Password   string
}

// CreateUser registers an account. Doctor accounts get their profile
// provisioned in the same call; everything else about the doctor (their
// department, schedule) is configured afterwards.
func (s *Service) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !validRole(p.Role) {
		return nil, fmt.Errorf("invalid role %q", p.Role)
	}
	if len(p.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	username := p.Username
	if username == "" {
		var err error
		username, err = s.uniqueUsername(ctx, p.Email)
		if err != nil {
			return nil, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     username,
		Email:        p.Email,
		NationalID:   p.NationalID,
		Phone:        p.Phone,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         p.Role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if u.Role == RoleDoctor {
		if _, err := s.doctors.Provision(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("provision doctor profile: %w", err)
		}
	}
	return u, nil
}

// NewPatient is the minimal record the public booking flow creates.
type NewPatient struct {
	FirstName  string
	LastName   string
	Email      string
	NationalID *string
	Phone      *string
}

// CreatePatient registers a patient account without a usable password;
// the patient can claim it later through the password-reset flow.
func (s *Service) CreatePatient(ctx context.Context, p NewPatient) (*User, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	username, err := s.uniqueUsername(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	placeholder, err := randomToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Username:     username,
		Email:        p.Email,
		NationalID:   p.NationalID,
		Phone:        p.Phone,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         RolePatient,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// uniqueUsername derives a username from the email local-part, appending
// a numeric suffix until it is free.
func (s *Service) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "patient"
	}

	candidate := base
	for i := 1; ; i++ {
		exists, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) FindByNationalID(ctx context.Context, nationalID string) (*User, error) {
	return s.repo.GetByNationalID(ctx, nationalID)
}

func (s *Service) UpdateContact(ctx context.Context, u *User) error {
	return s.repo.Update(ctx, u)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, role, limit, offset)
}

// Login accepts a username or an email and returns a signed bearer token.
// The failure is the same for an unknown account and a wrong password.
func (s *Service) Login(ctx context.Context, login, password string) (string, *User, error) {
	u, err := s.repo.GetByUsername(ctx, login)
	if errors.Is(err, ErrNotFound) && strings.Contains(login, "@") {
		u, err = s.repo.GetByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := auth.IssueToken(s.jwtSecret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}

// RequestPasswordReset issues a single-use 24-hour token. An unknown
// email is not an error, so the endpoint does not reveal which addresses
// have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := randomToken()
	if err != nil {
		return err
	}
	t := &PasswordResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.repo.CreateResetToken(ctx, t); err != nil {
		return err
	}
	s.notifier.PasswordReset(ctx, u, token)
	return nil
}

// ResetPassword consumes a reset token. The used_at guard in the store
// makes the token single-use even under concurrent submits.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	t, err := s.repo.GetResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !t.Usable(s.now()) {
		return ErrInvalidResetToken
	}
	if err := s.repo.MarkResetTokenUsed(ctx, t.ID, s.now()); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, t.UserID, string(hash))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
