package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no user or profile matches the given id.
var ErrNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, role Role, limit, offset int) ([]*User, int, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	SetCurrentMedic(ctx context.Context, userID uuid.UUID, medicID *uuid.UUID) error
	AddShare(ctx context.Context, userID, medicID uuid.UUID) error
	RemoveShare(ctx context.Context, userID, medicID uuid.UUID) error

	// ListByMedic returns every profile whose accessible-medic set contains
	// the given medic, either as current medic or through a share.
	ListByMedic(ctx context.Context, medicID uuid.UUID) ([]*PatientProfile, error)
}
