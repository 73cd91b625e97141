package exercise

import (
	"time"

	"github.com/google/uuid"
)

// ExerciseStatus is the lifecycle state of one prescribed repetition.
type ExerciseStatus string

const (
	ExercisePending   ExerciseStatus = "pending"
	ExerciseDone      ExerciseStatus = "done"
	ExerciseCancelled ExerciseStatus = "cancelled"
)

func (s ExerciseStatus) Valid() bool {
	return s == ExercisePending || s == ExerciseDone || s == ExerciseCancelled
}

// Homework is an exercise plan prescribed to a patient. Periodicity is the
// repetition interval in days within the from/to window.
type Homework struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	FromDate    time.Time `db:"from_date" json:"from_date"`
	ToDate      time.Time `db:"to_date" json:"to_date"`
	Periodicity int       `db:"periodicity" json:"periodicity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HomeworkExercise is one scheduled repetition within a homework plan.
type HomeworkExercise struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	HomeworkID    uuid.UUID      `db:"homework_id" json:"homework_id"`
	Date          time.Time      `db:"date" json:"date"`
	SessionNumber int            `db:"session_number" json:"session_number"`
	Status        ExerciseStatus `db:"status" json:"status"`
}

// Video is demonstration footage owned by a medic. Patients see the videos of
// their current medic. Content lives in external storage under StorageKey.
type Video struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	OwnerMedicID uuid.UUID `db:"owner_medic_id" json:"owner_medic_id"`
	StorageKey   string    `db:"storage_key" json:"storage_key"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
