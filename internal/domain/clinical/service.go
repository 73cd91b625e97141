package clinical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kinesio/kinesio/internal/domain/users"
)

var (
	// ErrUnauthorized is returned when the acting user has no relationship
	// granting access to the session's patient.
	ErrUnauthorized = errors.New("not authorized for this session")

	// ErrInvalidInput wraps request validation failures so handlers can map
	// them to a 400 without exposing anything else.
	ErrInvalidInput = errors.New("invalid session input")
)

// AccessChecker answers whether a user may access a patient's clinical data.
// Satisfied by the platform authorization checker.
type AccessChecker interface {
	CanAccessPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) (bool, error)
	AccessibleSessions(ctx context.Context, actor *users.User) ([]*Session, error)
}

type Service struct {
	sessions SessionRepository
	access   AccessChecker
}

func NewService(sessions SessionRepository, access AccessChecker) *Service {
	return &Service{sessions: sessions, access: access}
}

type CreateSessionInput struct {
	PatientID   uuid.UUID
	Date        time.Time
	Description string
	Status      Status
}

// Create records a new session for a patient. Only medics with access to the
// patient may create sessions.
func (s *Service) Create(ctx context.Context, actor *users.User, in CreateSessionInput) (*Session, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if err := s.requireAccess(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	session := &Session{
		ID:          uuid.New(),
		PatientID:   in.PatientID,
		Date:        in.Date,
		Description: in.Description,
		Status:      in.Status,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns a session after verifying the actor can access its patient.
// The authorization check runs on every call.
func (s *Service) Get(ctx context.Context, actor *users.User, id uuid.UUID) (*Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, actor, session.PatientID); err != nil {
		return nil, err
	}
	return session, nil
}

type UpdateSessionInput struct {
	Description *string
	Status      *Status
}

func (s *Service) Update(ctx context.Context, actor *users.User, id uuid.UUID, in UpdateSessionInput) (*Session, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, actor, session.PatientID); err != nil {
		return nil, err
	}
	if in.Description != nil {
		session.Description = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		session.Status = *in.Status
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) Delete(ctx context.Context, actor *users.User, id uuid.UUID) error {
	if actor == nil || !actor.IsMedic() {
		return ErrUnauthorized
	}
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, actor, session.PatientID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// ListForPatient returns the patient's sessions, newest first.
func (s *Service) ListForPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) ([]*Session, error) {
	if err := s.requireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.sessions.ListByPatient(ctx, patientID)
}

// ListForUser returns every session the actor may read: a patient sees their
// own history, a medic sees every patient they treat or were shared.
func (s *Service) ListForUser(ctx context.Context, actor *users.User) ([]*Session, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.access.AccessibleSessions(ctx, actor)
}

func (s *Service) requireAccess(ctx context.Context, actor *users.User, patientID uuid.UUID) error {
	ok, err := s.access.CanAccessPatient(ctx, actor, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
