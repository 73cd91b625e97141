package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no session matches the given id.
var ErrNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Session, error)
}
