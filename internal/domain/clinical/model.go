package clinical

import (
	"time"

	"github.com/google/uuid"
)

// Status is a session lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusFinished || s == StatusCancelled
}

// Session maps to the clinical_sessions table. A session belongs to exactly
// one patient; its accessible-user set is the owning patient's
// accessible-medic set plus the patient's own user.
type Session struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Date        time.Time `db:"date" json:"date"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
