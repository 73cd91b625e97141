package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kinesio/kinesio/internal/domain/clinical"
	"github.com/kinesio/kinesio/internal/domain/users"
	"github.com/kinesio/kinesio/internal/platform/crypto"
	"github.com/kinesio/kinesio/internal/platform/imaging"
)

var (
	// ErrUnauthorized means the relationship check failed. Handlers render it
	// the same as ErrNotFound so image ids cannot be enumerated; the server
	// logs keep the distinction.
	ErrUnauthorized = errors.New("not authorized for this image")

	// ErrSessionNotFound is returned when an upload targets an unknown session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTag is returned for a tag outside the closed enumeration.
	ErrInvalidTag = errors.New("invalid image tag")
)

// AccessChecker answers relationship questions. Answers are recomputed on
// every call; the service never caches them.
type AccessChecker interface {
	CanAccessPatient(ctx context.Context, actor *users.User, patientID uuid.UUID) (bool, error)
	CanAccessImage(ctx context.Context, actor *users.User, imageID uuid.UUID) (bool, error)
	AccessibleImages(ctx context.Context, actor *users.User) ([]*Image, error)
}

type SessionSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clinical.Session, error)
}

// TxFunc runs fn atomically. In production it wraps fn in a database
// transaction so an authorization check and the write it guards commit as
// one unit.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	images    ImageRepository
	sessions  SessionSource
	access    AccessChecker
	cipher    *crypto.ContentCipher
	inTx      TxFunc
	logger    zerolog.Logger
	thumbnail func([]byte) ([]byte, error)
}

func NewService(images ImageRepository, sessions SessionSource, access AccessChecker, cipher *crypto.ContentCipher, inTx TxFunc, logger zerolog.Logger) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		images:    images,
		sessions:  sessions,
		access:    access,
		cipher:    cipher,
		inTx:      inTx,
		logger:    logger,
		thumbnail: imaging.GenerateThumbnail,
	}
}

// CreateImage sanitizes, thumbnails, encrypts and persists an upload. The
// relationship check and the insert run in the same transaction so a
// concurrent revocation cannot race the write.
func (s *Service) CreateImage(ctx context.Context, actor *users.User, sessionID uuid.UUID, raw []byte, tag Tag) (*Image, error) {
	if actor == nil || !actor.IsMedic() {
		return nil, ErrUnauthorized
	}
	if !tag.Valid() {
		return nil, ErrInvalidTag
	}

	var img *Image
	err := s.inTx(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetByID(ctx, sessionID)
		if errors.Is(err, clinical.ErrNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if err := s.requirePatientAccess(ctx, actor, session.PatientID); err != nil {
			return err
		}

		sanitized := sanitizeUpload(raw)
		thumb, err := s.thumbnail(sanitized)
		if err != nil {
			return err
		}
		encContent, err := s.cipher.Encrypt(sanitized)
		if err != nil {
			return err
		}
		encThumb, err := s.cipher.Encrypt(thumb)
		if err != nil {
			return err
		}

		img = &Image{
			ID:                 uuid.New(),
			SessionID:          &sessionID,
			Tag:                tag,
			EncryptedContent:   encContent,
			EncryptedThumbnail: encThumb,
		}
		return s.images.Create(ctx, img)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ReadImage returns the decrypted original payload. Authorization always runs
// before any decryption.
func (s *Service) ReadImage(ctx context.Context, actor *users.User, imageID uuid.UUID) ([]byte, error) {
	img, err := s.authorizeRead(ctx, actor, imageID)
	if err != nil {
		return nil, err
	}
	return s.decrypt(img.ID, img.EncryptedContent)
}

// ReadThumbnail is ReadImage for the thumbnail payload.
func (s *Service) ReadThumbnail(ctx context.Context, actor *users.User, imageID uuid.UUID) ([]byte, error) {
	img, err := s.authorizeRead(ctx, actor, imageID)
	if err != nil {
		return nil, err
	}
	return s.decrypt(img.ID, img.EncryptedThumbnail)
}

// ListByTag returns the session's gallery grouped in fixed tag order. Empty
// sessions yield an empty slice, not an error.
func (s *Service) ListByTag(ctx context.Context, actor *users.User, sessionID uuid.UUID) ([]TagGroup, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, clinical.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.requirePatientAccess(ctx, actor, session.PatientID); err != nil {
		return nil, err
	}
	images, err := s.images.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ClassifyByTag(images), nil
}

// DeleteImage removes an image. Medic role plus relationship required.
func (s *Service) DeleteImage(ctx context.Context, actor *users.User, imageID uuid.UUID) error {
	if actor == nil || !actor.IsMedic() {
		return ErrUnauthorized
	}
	if _, err := s.authorizeRead(ctx, actor, imageID); err != nil {
		return err
	}
	return s.images.Delete(ctx, imageID)
}

// ListAccessible returns every image the actor may read, across all of their
// sessions. Payloads never serialize; callers get metadata only.
func (s *Service) ListAccessible(ctx context.Context, actor *users.User) ([]*Image, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.access.AccessibleImages(ctx, actor)
}

// authorizeRead resolves the image and enforces the image→session→patient
// chain. An image with no session, or a dangling session reference, is
// accessible to nobody.
func (s *Service) authorizeRead(ctx context.Context, actor *users.User, imageID uuid.UUID) (*Image, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.CanAccessImage(ctx, actor, imageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	return img, nil
}

func (s *Service) requirePatientAccess(ctx context.Context, actor *users.User, patientID uuid.UUID) error {
	ok, err := s.access.CanAccessPatient(ctx, actor, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) decrypt(imageID uuid.UUID, payload []byte) ([]byte, error) {
	plain, err := s.cipher.Decrypt(payload)
	if errors.Is(err, crypto.ErrDecrypt) {
		// Integrity failure on stored ciphertext means corruption or
		// tampering. Surfaced, never swallowed.
		s.logger.Error().
			Str("image_id", imageID.String()).
			Msg("image payload failed integrity verification")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return plain, nil
}
