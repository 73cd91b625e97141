package exercise

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("exercise entity not found")

type HomeworkRepository interface {
	Create(ctx context.Context, hw *Homework) error
	GetByID(ctx context.Context, id uuid.UUID) (*Homework, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Homework, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddExercise(ctx context.Context, ex *HomeworkExercise) error
	ListExercises(ctx context.Context, homeworkID uuid.UUID) ([]*HomeworkExercise, error)
	SetExerciseStatus(ctx context.Context, id uuid.UUID, status ExerciseStatus) error
	GetExercise(ctx context.Context, id uuid.UUID) (*HomeworkExercise, error)
}

type VideoRepository interface {
	Create(ctx context.Context, v *Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*Video, error)
	ListByOwner(ctx context.Context, medicID uuid.UUID) ([]*Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
