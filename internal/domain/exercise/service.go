package exercise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kinesio/kinesio/internal/domain/users"
)

var (
	ErrUnauthorized = errors.New("not authorized for this exercise entity")

	// ErrInvalidInput wraps request validation failures so handlers can map
	// them to a 400 without exposing anything else.
	ErrInvalidInput = errors.New("invalid exercise input")
)

type AccessChecker interface {
	CanAccessPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) (bool, error)
}

type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*users.PatientProfile, error)
}

type Service struct {
	homeworks HomeworkRepository
	videos    VideoRepository
	profiles  ProfileSource
	access    AccessChecker
}

func NewService(homeworks HomeworkRepository, videos VideoRepository, profiles ProfileSource, access AccessChecker) *Service {
	return &Service{homeworks: homeworks, videos: videos, profiles: profiles, access: access}
}

type CreateHomeworkInput struct {
	PatientID   uuid.UUID
	FromDate    time.Time
	ToDate      time.Time
	Periodicity int
}

func (s *Service) CreateHomework(ctx context.Context, actor *users.User, in CreateHomeworkInput) (*Homework, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	if err := s.requireAccess(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	if in.Periodicity <= 0 {
		return nil, fmt.Errorf("%w: periodicity must be a positive number of days", ErrInvalidInput)
	}
	if !in.ToDate.After(in.FromDate) {
		return nil, fmt.Errorf("%w: to_date must come after from_date", ErrInvalidInput)
	}
	hw := &Homework{
		ID:          uuid.New(),
		PatientID:   in.PatientID,
		FromDate:    in.FromDate,
		ToDate:      in.ToDate,
		Periodicity: in.Periodicity,
	}
	if err := s.homeworks.Create(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

func (s *Service) GetHomework(ctx context.Context, actor *users.User, id uuid.UUID) (*Homework, error) {
	hw, err := s.homeworks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, actor, hw.PatientID); err != nil {
		return nil, err
	}
	return hw, nil
}

func (s *Service) ListHomeworkForPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) ([]*Homework, error) {
	if err := s.requireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.homeworks.ListByPatient(ctx, patientID)
}

func (s *Service) DeleteHomework(ctx context.Context, actor *users.User, id uuid.UUID) error {
	if actor == nil || !actor.IsMedic() {
		return ErrUnauthorized
	}
	hw, err := s.homeworks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, actor, hw.PatientID); err != nil {
		return err
	}
	return s.homeworks.Delete(ctx, id)
}

func (s *Service) AddExercise(ctx context.Context, actor *users.User, homeworkID uuid.UUID, date time.Time, sessionNumber int) (*HomeworkExercise, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	hw, err := s.homeworks.GetByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, actor, hw.PatientID); err != nil {
		return nil, err
	}
	ex := &HomeworkExercise{
		ID:            uuid.New(),
		HomeworkID:    homeworkID,
		Date:          date,
		SessionNumber: sessionNumber,
		Status:        ExercisePending,
	}
	if err := s.homeworks.AddExercise(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func (s *Service) ListExercises(ctx context.Context, actor *users.User, homeworkID uuid.UUID) ([]*HomeworkExercise, error) {
	hw, err := s.homeworks.GetByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, actor, hw.PatientID); err != nil {
		return nil, err
	}
	return s.homeworks.ListExercises(ctx, homeworkID)
}

// SetExerciseStatus lets the patient themself or an authorized medic mark a
// repetition done or cancelled.
func (s *Service) SetExerciseStatus(ctx context.Context, actor *users.User, exerciseID uuid.UUID, status ExerciseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	ex, err := s.homeworks.GetExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	hw, err := s.homeworks.GetByID(ctx, ex.HomeworkID)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, actor, hw.PatientID); err != nil {
		return err
	}
	return s.homeworks.SetExerciseStatus(ctx, exerciseID, status)
}

func (s *Service) CreateVideo(ctx context.Context, actor *users.User, name, storageKey string) (*Video, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	v := &Video{
		ID:           uuid.New(),
		Name:         name,
		OwnerMedicID: actor.ID,
		StorageKey:   storageKey,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// AccessibleVideos returns the actor's library: a medic sees their own
// uploads, a patient sees their current medic's. A patient with no current
// medic sees nothing.
func (s *Service) AccessibleVideos(ctx context.Context, actor *users.User) ([]*Video, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.IsMedic() {
		return s.videos.ListByOwner(ctx, actor.ID)
	}
	profile, err := s.profiles.GetByUserID(ctx, actor.ID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if profile.CurrentMedicID == nil {
		return nil, nil
	}
	return s.videos.ListByOwner(ctx, *profile.CurrentMedicID)
}

// DeleteVideo is owner-only.
func (s *Service) DeleteVideo(ctx context.Context, actor *users.User, id uuid.UUID) error {
	if actor == nil || !actor.IsMedic() {
		return ErrUnauthorized
	}
	v, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v.OwnerMedicID != actor.ID {
		return ErrUnauthorized
	}
	return s.videos.Delete(ctx, id)
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
