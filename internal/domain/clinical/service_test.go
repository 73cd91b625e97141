package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kinesio/kinesio/internal/domain/users"
)

type mockSessionRepo struct {
	sessions map[uuid.UUID]*Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Session, error) {
	var out []*Session
	for _, s := range m.sessions {
		if s.PatientID == patientID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// allowChecker grants access to a fixed set of (userID, patientID) pairs.
// When given a repo it also answers bulk listings from the same grants.
type allowChecker struct {
	grants   map[uuid.UUID]map[uuid.UUID]bool
	sessions *mockSessionRepo
}

func newAllowChecker() *allowChecker {
	return &allowChecker{grants: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (a *allowChecker) allow(userID, patientID uuid.UUID) {
	if a.grants[userID] == nil {
		a.grants[userID] = make(map[uuid.UUID]bool)
	}
	a.grants[userID][patientID] = true
}

func (a *allowChecker) CanAccessPatient(_ context.Context, actor *users.User, patientID uuid.UUID) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return a.grants[actor.ID][patientID], nil
}

func (a *allowChecker) AccessibleSessions(_ context.Context, actor *users.User) ([]*Session, error) {
	if actor == nil || a.sessions == nil {
		return nil, nil
	}
	var out []*Session
	for _, s := range a.sessions.sessions {
		if a.grants[actor.ID][s.PatientID] {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func medic() *users.User {
	return &users.User{ID: uuid.New(), Name: "dr", Role: users.RoleMedic}
}

func patient() *users.User {
	return &users.User{ID: uuid.New(), Name: "pat", Role: users.RolePatient}
}

func TestCreateSession(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)

	s, err := svc.Create(context.Background(), m, CreateSessionInput{
		PatientID:   p.ID,
		Description: "initial assessment",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Status != StatusPending {
		t.Errorf("status = %q, want %q", s.Status, StatusPending)
	}
	if s.Date.IsZero() {
		t.Error("expected a default date")
	}
	if _, ok := repo.sessions[s.ID]; !ok {
		t.Error("session not persisted")
	}
}

func TestCreateSessionUnrelatedMedic(t *testing.T) {
	svc := NewService(newMockSessionRepo(), newAllowChecker())

	_, err := svc.Create(context.Background(), medic(), CreateSessionInput{PatientID: uuid.New()})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateSessionPatientRejected(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	p := patient()
	checker.allow(p.ID, p.ID)

	_, err := svc.Create(context.Background(), p, CreateSessionInput{PatientID: p.ID})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestGetSessionAuthorization(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)
	checker.allow(p.ID, p.ID)

	created, err := svc.Create(context.Background(), m, CreateSessionInput{PatientID: p.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), p, created.ID); err != nil {
		t.Errorf("patient denied own session: %v", err)
	}
	if _, err := svc.Get(context.Background(), medic(), created.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unrelated medic err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Get(context.Background(), nil, created.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil actor err = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateSession(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)

	created, err := svc.Create(context.Background(), m, CreateSessionInput{PatientID: p.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := StatusFinished
	desc := "completed"
	updated, err := svc.Update(context.Background(), m, created.ID, UpdateSessionInput{
		Description: &desc,
		Status:      &done,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusFinished || updated.Description != "completed" {
		t.Errorf("got %+v", updated)
	}

	bad := Status("archived")
	if _, err := svc.Update(context.Background(), m, created.ID, UpdateSessionInput{Status: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status err = %v, want ErrInvalidInput", err)
	}
}

func TestDeleteSessionRequiresRelationship(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)

	created, err := svc.Create(context.Background(), m, CreateSessionInput{PatientID: p.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), medic(), created.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unrelated medic err = %v, want ErrUnauthorized", err)
	}
	if err := svc.Delete(context.Background(), m, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), m, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestListForPatient(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), m, CreateSessionInput{
			PatientID: p.ID,
			Date:      time.Now().Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	sessions, err := svc.ListForPatient(context.Background(), m, p.ID)
	if err != nil {
		t.Fatalf("ListForPatient: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("len = %d, want 3", len(sessions))
	}

	if _, err := svc.ListForPatient(context.Background(), medic(), p.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unrelated medic err = %v, want ErrUnauthorized", err)
	}
}

func TestListForUser(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	checker.sessions = repo
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	other := patient()
	checker.allow(m.ID, p.ID)
	checker.allow(p.ID, p.ID)
	checker.allow(other.ID, other.ID)

	mine, err := svc.Create(context.Background(), m, CreateSessionInput{PatientID: p.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	theirs := &Session{ID: uuid.New(), PatientID: other.ID}
	repo.sessions[theirs.ID] = theirs

	for _, actor := range []*users.User{m, p} {
		sessions, err := svc.ListForUser(context.Background(), actor)
		if err != nil {
			t.Fatalf("ListForUser: %v", err)
		}
		if len(sessions) != 1 || sessions[0].ID != mine.ID {
			t.Errorf("actor %s listed %d sessions, want just their own", actor.ID, len(sessions))
		}
	}

	sessions, err := svc.ListForUser(context.Background(), medic())
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("unrelated medic listed %d sessions, want none", len(sessions))
	}

	if _, err := svc.ListForUser(context.Background(), nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil actor err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateSessionInvalidInput(t *testing.T) {
	repo := newMockSessionRepo()
	checker := newAllowChecker()
	svc := NewService(repo, checker)

	m := medic()
	p := patient()
	checker.allow(m.ID, p.ID)

	if _, err := svc.Create(context.Background(), m, CreateSessionInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing patient err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(context.Background(), m, CreateSessionInput{PatientID: p.ID, Status: Status("archived")}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad status err = %v, want ErrInvalidInput", err)
	}
}
