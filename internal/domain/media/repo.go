package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no image matches the given id.
var ErrNotFound = errors.New("image not found")

type ImageRepository interface {
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id uuid.UUID) (*Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*Image, error)
}
