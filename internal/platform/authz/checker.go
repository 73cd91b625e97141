// Package authz resolves relationship-based access. Every answer is computed
// from the current relationship rows; nothing is cached, so revoking a share
// takes effect on the next request.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kinesio/kinesio/internal/domain/clinical"
	"github.com/kinesio/kinesio/internal/domain/media"
	"github.com/kinesio/kinesio/internal/domain/users"
)

type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*users.PatientProfile, error)
	ListByMedic(ctx context.Context, medicID uuid.UUID) ([]*users.PatientProfile, error)
}

type SessionSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clinical.Session, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*clinical.Session, error)
}

type ImageSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*media.Image, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*media.Image, error)
}

type Checker struct {
	profiles ProfileSource
	sessions SessionSource
	images   ImageSource
}

func NewChecker(profiles ProfileSource, sessions SessionSource, images ImageSource) *Checker {
	return &Checker{profiles: profiles, sessions: sessions, images: images}
}

// CanAccessPatient reports whether actor may read the patient's clinical
// data. A patient with no profile row is accessible to nobody.
func (c *Checker) CanAccessPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) (bool, error) {
	if actor == nil {
		return false, nil
	}
	profile, err := c.profiles.GetByUserID(ctx, patientID)
	if errors.Is(err, users.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.CanBeAccessedBy(actor), nil
}

// CanAccessSession resolves the session to its patient and delegates to
// CanAccessPatient. A dangling session id denies access.
func (c *Checker) CanAccessSession(ctx context.Context, actor *users.User, sessionID uuid.UUID) (bool, error) {
	session, err := c.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, clinical.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.CanAccessPatient(ctx, actor, session.PatientID)
}

// CanAccessImage resolves the image through its session to the owning
// patient. An image with no session yet, or with a dangling session
// reference, is accessible to nobody.
func (c *Checker) CanAccessImage(ctx context.Context, actor *users.User, imageID uuid.UUID) (bool, error) {
	img, err := c.images.GetByID(ctx, imageID)
	if errors.Is(err, media.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if img.SessionID == nil {
		return false, nil
	}
	return c.CanAccessSession(ctx, actor, *img.SessionID)
}

// AccessiblePatients returns the ids of every patient the actor may access.
// The result agrees with CanAccessPatient: both are derived from the same
// relationship rows.
func (c *Checker) AccessiblePatients(ctx context.Context, actor *users.User) ([]uuid.UUID, error) {
	if actor == nil {
		return nil, nil
	}
	if actor.IsPatient() {
		if _, err := c.profiles.GetByUserID(ctx, actor.ID); errors.Is(err, users.ErrNotFound) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		return []uuid.UUID{actor.ID}, nil
	}
	profiles, err := c.profiles.ListByMedic(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// AccessibleSessions returns every session belonging to an accessible patient.
func (c *Checker) AccessibleSessions(ctx context.Context, actor *users.User) ([]*clinical.Session, error) {
	patients, err := c.AccessiblePatients(ctx, actor)
	if err != nil {
		return nil, err
	}
	var out []*clinical.Session
	for _, patientID := range patients {
		sessions, err := c.sessions.ListByPatient(ctx, patientID)
		if err != nil {
			return nil, err
		}
		out = append(out, sessions...)
	}
	return out, nil
}

// AccessibleImages returns every image attached to an accessible session.
// Images without a session are never listed, matching CanAccessImage.
func (c *Checker) AccessibleImages(ctx context.Context, actor *users.User) ([]*media.Image, error) {
	sessions, err := c.AccessibleSessions(ctx, actor)
	if err != nil {
		return nil, err
	}
	var out []*media.Image
	for _, session := range sessions {
		images, err := c.images.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, images...)
	}
	return out, nil
}
