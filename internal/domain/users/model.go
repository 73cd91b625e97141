package users

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two principals of the clinic. It is a capability
// tag consumed by role-conditioned code paths, not a subtype.
type Role string

const (
	RoleMedic   Role = "medic"
	RolePatient Role = "patient"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleMedic || r == RolePatient
}

// User maps to the users table. A patient-role user owns exactly one
// PatientProfile; a medic-role user has none.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsMedic() bool   { return u.Role == RoleMedic }
func (u *User) IsPatient() bool { return u.Role == RolePatient }

// PatientProfile maps to the patient_profiles table plus the
// patient_shares join rows. CurrentMedicID is the primary treating medic
// (at most one, nullable); SharedWith is the set of medic user IDs granted
// access independently of the current medic.
type PatientProfile struct {
	UserID         uuid.UUID   `db:"user_id" json:"user_id"`
	CurrentMedicID *uuid.UUID  `db:"current_medic_id" json:"current_medic_id,omitempty"`
	SharedWith     []uuid.UUID `json:"shared_with"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// AccessibleMedics returns the profile's accessible-medic set:
// {current_medic} ∪ shared_with, minus nulls, deduplicated.
func (p *PatientProfile) AccessibleMedics() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(p.SharedWith)+1)
	var medics []uuid.UUID

	if p.CurrentMedicID != nil && *p.CurrentMedicID != uuid.Nil {
		seen[*p.CurrentMedicID] = true
		medics = append(medics, *p.CurrentMedicID)
	}
	for _, id := range p.SharedWith {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		medics = append(medics, id)
	}
	return medics
}

// CanBeAccessedBy reports whether the given user may act on this patient's
// records: the patient themself, or any accessible medic.
func (p *PatientProfile) CanBeAccessedBy(u *User) bool {
	if u == nil {
		return false
	}
	if u.ID == p.UserID {
		return true
	}
	if !u.IsMedic() {
		return false
	}
	for _, id := range p.AccessibleMedics() {
		if id == u.ID {
			return true
		}
	}
	return false
}
