package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	users    UserRepository
	profiles ProfileRepository
}

func NewService(users UserRepository, profiles ProfileRepository) *Service {
	return &Service{users: users, profiles: profiles}
}

// CreateMedic provisions a medic-role user.
func (s *Service) CreateMedic(ctx context.Context, name string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	u := &User{Name: name, Role: RoleMedic}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreatePatient provisions a patient-role user together with its profile.
// Every patient-role user owns exactly one profile from the moment it
// exists.
func (s *Service) CreatePatient(ctx context.Context, name string, currentMedicID *uuid.UUID) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if currentMedicID != nil {
		if err := s.requireMedic(ctx, *currentMedicID); err != nil {
			return nil, err
		}
	}

	u := &User{Name: name, Role: RolePatient}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	profile := &PatientProfile{UserID: u.ID, CurrentMedicID: currentMedicID}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role Role, limit, offset int) ([]*User, int, error) {
	if !role.Valid() {
		return nil, 0, fmt.Errorf("unknown role %q", role)
	}
	return s.users.List(ctx, role, limit, offset)
}

// Profile returns a patient's profile with its sharing set loaded.
func (s *Service) Profile(ctx context.Context, patientUserID uuid.UUID) (*PatientProfile, error) {
	return s.profiles.GetByUserID(ctx, patientUserID)
}

// AssignMedic sets the patient's current treating medic. Passing nil clears
// the assignment.
func (s *Service) AssignMedic(ctx context.Context, patientUserID uuid.UUID, medicID *uuid.UUID) error {
	if medicID != nil {
		if err := s.requireMedic(ctx, *medicID); err != nil {
			return err
		}
	}
	return s.profiles.SetCurrentMedic(ctx, patientUserID, medicID)
}

// Share grants a medic access to the patient's records, independent of the
// current-medic assignment.
func (s *Service) Share(ctx context.Context, patientUserID, medicID uuid.UUID) error {
	if err := s.requireMedic(ctx, medicID); err != nil {
		return err
	}
	if _, err := s.profiles.GetByUserID(ctx, patientUserID); err != nil {
		return err
	}
	return s.profiles.AddShare(ctx, patientUserID, medicID)
}

// Unshare revokes a previously granted share. Takes effect on the next
// authorization check; decisions are never cached.
func (s *Service) Unshare(ctx context.Context, patientUserID, medicID uuid.UUID) error {
	return s.profiles.RemoveShare(ctx, patientUserID, medicID)
}

func (s *Service) requireMedic(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.IsMedic() {
		return fmt.Errorf("user %s is not a medic", id)
	}
	return nil
}
