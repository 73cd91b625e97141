package media

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kinesio/kinesio/internal/domain/clinical"
	"github.com/kinesio/kinesio/internal/domain/users"
	"github.com/kinesio/kinesio/internal/platform/crypto"
)

type mockImageRepo struct {
	images map[uuid.UUID]*Image
}

func newMockImageRepo() *mockImageRepo {
	return &mockImageRepo{images: make(map[uuid.UUID]*Image)}
}

func (m *mockImageRepo) Create(_ context.Context, img *Image) error {
	cp := *img
	m.images[img.ID] = &cp
	return nil
}

func (m *mockImageRepo) GetByID(_ context.Context, id uuid.UUID) (*Image, error) {
	img, ok := m.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (m *mockImageRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.images, id)
	return nil
}

func (m *mockImageRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*Image, error) {
	var out []*Image
	for _, img := range m.images {
		if img.SessionID != nil && *img.SessionID == sessionID {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

type stubSessions struct {
	sessions map[uuid.UUID]*clinical.Session
}

func (s *stubSessions) GetByID(_ context.Context, id uuid.UUID) (*clinical.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, clinical.ErrNotFound
	}
	return sess, nil
}

// stubAccess answers the same image→session→patient chain the real checker
// walks, over the fixture's in-memory stores.
type stubAccess struct {
	grants   map[uuid.UUID]map[uuid.UUID]bool
	images   *mockImageRepo
	sessions *stubSessions
}

func (a *stubAccess) allow(userID, patientID uuid.UUID) {
	if a.grants == nil {
		a.grants = make(map[uuid.UUID]map[uuid.UUID]bool)
	}
	if a.grants[userID] == nil {
		a.grants[userID] = make(map[uuid.UUID]bool)
	}
	a.grants[userID][patientID] = true
}

func (a *stubAccess) revoke(userID, patientID uuid.UUID) {
	delete(a.grants[userID], patientID)
}

func (a *stubAccess) CanAccessPatient(_ context.Context, actor *users.User, patientID uuid.UUID) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return a.grants[actor.ID][patientID], nil
}

func (a *stubAccess) CanAccessImage(ctx context.Context, actor *users.User, imageID uuid.UUID) (bool, error) {
	img, err := a.images.GetByID(ctx, imageID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if img.SessionID == nil {
		return false, nil
	}
	session, err := a.sessions.GetByID(ctx, *img.SessionID)
	if errors.Is(err, clinical.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.CanAccessPatient(ctx, actor, session.PatientID)
}

func (a *stubAccess) AccessibleImages(ctx context.Context, actor *users.User) ([]*Image, error) {
	var out []*Image
	for id := range a.images.images {
		ok, err := a.CanAccessImage(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		if ok {
			img, _ := a.images.GetByID(ctx, id)
			out = append(out, img)
		}
	}
	return out, nil
}

type fixture struct {
	svc     *Service
	repo    *mockImageRepo
	access  *stubAccess
	medic   *users.User
	patient *users.User
	session *clinical.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	cipher, err := crypto.NewContentCipher(key)
	if err != nil {
		t.Fatalf("NewContentCipher: %v", err)
	}

	medic := &users.User{ID: uuid.New(), Role: users.RoleMedic}
	patient := &users.User{ID: uuid.New(), Role: users.RolePatient}
	session := &clinical.Session{ID: uuid.New(), PatientID: patient.ID}

	repo := newMockImageRepo()
	sessions := &stubSessions{sessions: map[uuid.UUID]*clinical.Session{session.ID: session}}
	access := &stubAccess{images: repo, sessions: sessions}
	access.allow(medic.ID, patient.ID)
	access.allow(patient.ID, patient.ID)

	svc := NewService(repo, sessions, access, cipher, nil, zerolog.Nop())
	// Thumbnailing is exercised in the imaging package; here a fixed stand-in
	// keeps fixtures independent of codec byte layout.
	svc.thumbnail = func(sanitized []byte) ([]byte, error) {
		return append([]byte("thumb:"), sanitized...), nil
	}

	return &fixture{svc: svc, repo: repo, access: access, medic: medic, patient: patient, session: session}
}

func TestCreateImageEncryptsBothPayloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := []byte{0x01, 0x02, 0x03, 0x04}

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, raw, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if img.SessionID == nil || *img.SessionID != f.session.ID {
		t.Error("session id not set")
	}

	stored := f.repo.images[img.ID]
	if bytes.Contains(stored.EncryptedContent, raw) {
		t.Error("original persisted in cleartext")
	}
	if bytes.Contains(stored.EncryptedThumbnail, []byte("thumb:")) {
		t.Error("thumbnail persisted in cleartext")
	}
	if bytes.Equal(stored.EncryptedContent, stored.EncryptedThumbnail) {
		t.Error("payloads share ciphertext, expected independent encryption")
	}
}

func TestCreateImageSanitizesBeforeEncrypting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := append([]byte(`\n`), 0x10, '\n', 0x20)
	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, raw, TagOther)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	got, err := f.svc.ReadImage(ctx, f.medic, img.ID)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if want := []byte{0x10, 0x20}; !bytes.Equal(got, want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestCreateImageAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := []byte{0x01}

	if _, err := f.svc.CreateImage(ctx, f.patient, f.session.ID, raw, TagFront); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("patient upload err = %v, want ErrUnauthorized", err)
	}
	stranger := &users.User{ID: uuid.New(), Role: users.RoleMedic}
	if _, err := f.svc.CreateImage(ctx, stranger, f.session.ID, raw, TagFront); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unrelated medic err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.CreateImage(ctx, f.medic, uuid.New(), raw, TagFront); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, raw, Tag("selfie")); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("bad tag err = %v, want ErrInvalidTag", err)
	}
}

func TestReadImageRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := []byte{0xde, 0xad, 0xbe, 0xef}

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, raw, TagBack)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	got, err := f.svc.ReadImage(ctx, f.patient, img.ID)
	if err != nil {
		t.Fatalf("ReadImage as patient: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("got %v, want %v", got, raw)
	}

	thumb, err := f.svc.ReadThumbnail(ctx, f.patient, img.ID)
	if err != nil {
		t.Fatalf("ReadThumbnail: %v", err)
	}
	if want := append([]byte("thumb:"), raw...); !bytes.Equal(thumb, want) {
		t.Errorf("thumbnail = %v, want %v", thumb, want)
	}
}

func TestReadImageUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01}, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	stranger := &users.User{ID: uuid.New(), Role: users.RoleMedic}
	if _, err := f.svc.ReadImage(ctx, stranger, img.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.ReadImage(ctx, nil, img.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil actor err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.ReadImage(ctx, f.medic, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown image err = %v, want ErrNotFound", err)
	}
}

func TestReadImageDanglingSessionFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orphan := &Image{ID: uuid.New(), Tag: TagOther}
	f.repo.images[orphan.ID] = orphan
	if _, err := f.svc.ReadImage(ctx, f.medic, orphan.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil session err = %v, want ErrUnauthorized", err)
	}

	gone := uuid.New()
	dangling := &Image{ID: uuid.New(), SessionID: &gone, Tag: TagOther}
	f.repo.images[dangling.ID] = dangling
	if _, err := f.svc.ReadImage(ctx, f.medic, dangling.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("dangling session err = %v, want ErrUnauthorized", err)
	}
}

func TestReadImageRevocationTakesEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01}, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if _, err := f.svc.ReadImage(ctx, f.medic, img.ID); err != nil {
		t.Fatalf("ReadImage before revocation: %v", err)
	}

	f.access.revoke(f.medic.ID, f.patient.ID)
	if _, err := f.svc.ReadImage(ctx, f.medic, img.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("after revocation err = %v, want ErrUnauthorized", err)
	}
}

func TestReadImageTamperedCiphertext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01, 0x02}, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	stored := f.repo.images[img.ID]
	stored.EncryptedContent[len(stored.EncryptedContent)-1] ^= 0x01

	if _, err := f.svc.ReadImage(ctx, f.medic, img.ID); !errors.Is(err, crypto.ErrDecrypt) {
		t.Errorf("tampered err = %v, want ErrDecrypt", err)
	}
}

func TestListByTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tag := range []Tag{TagBack, TagFront, TagFront} {
		if _, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01}, tag); err != nil {
			t.Fatalf("CreateImage: %v", err)
		}
	}

	groups, err := f.svc.ListByTag(ctx, f.patient, f.session.ID)
	if err != nil {
		t.Fatalf("ListByTag: %v", err)
	}
	if len(groups) != 2 || groups[0].Tag != TagFront || groups[1].Tag != TagBack {
		t.Errorf("groups = %+v, want [front back]", groups)
	}

	if _, err := f.svc.ListByTag(ctx, f.medic, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session err = %v, want ErrSessionNotFound", err)
	}
	stranger := &users.User{ID: uuid.New(), Role: users.RoleMedic}
	if _, err := f.svc.ListByTag(ctx, stranger, f.session.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger err = %v, want ErrUnauthorized", err)
	}
}

func TestListByTagEmptySession(t *testing.T) {
	f := newFixture(t)
	groups, err := f.svc.ListByTag(context.Background(), f.medic, f.session.ID)
	if err != nil {
		t.Fatalf("ListByTag: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected empty gallery, got %+v", groups)
	}
}

func TestListAccessible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01}, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	orphan := &Image{ID: uuid.New(), Tag: TagOther}
	f.repo.images[orphan.ID] = orphan

	for _, actor := range []*users.User{f.medic, f.patient} {
		listed, err := f.svc.ListAccessible(ctx, actor)
		if err != nil {
			t.Fatalf("ListAccessible: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != img.ID {
			t.Errorf("actor %s listed %d images, want just the session image", actor.ID, len(listed))
		}
	}

	stranger := &users.User{ID: uuid.New(), Role: users.RoleMedic}
	listed, err := f.svc.ListAccessible(ctx, stranger)
	if err != nil {
		t.Fatalf("ListAccessible: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("unrelated medic listed %d images, want none", len(listed))
	}

	if _, err := f.svc.ListAccessible(ctx, nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil actor err = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.CreateImage(ctx, f.medic, f.session.ID, []byte{0x01}, TagFront)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}

	if err := f.svc.DeleteImage(ctx, f.patient, img.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("patient delete err = %v, want ErrUnauthorized", err)
	}
	if err := f.svc.DeleteImage(ctx, f.medic, img.ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := f.svc.ReadImage(ctx, f.medic, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}
