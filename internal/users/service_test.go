package users

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memProfiles struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
	err  error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{data: map[string]json.RawMessage{}}
}

func (m *memProfiles) Write(ctx context.Context, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[path] = raw
	return nil
}

func (m *memProfiles) Read(ctx context.Context, path string) (recordstore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[path]
	return recordstore.Snapshot{Path: path, Exists: ok, Value: raw}, nil
}

type stubCredentials struct {
	user    *User
	updated string
}

func (s *stubCredentials) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubCredentials) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.updated = hash
	return nil
}

// plainHasher prefixes instead of hashing.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain:") {
		return false, errors.New("invalid hash")
	}
	return encoded == "plain:"+password, nil
}

func newUsersService(t *testing.T, profiles *memProfiles, creds *stubCredentials) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Profiles: profiles, Users: creds, Hasher: plainHasher{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetAndUpdateProfile(t *testing.T) {
	profiles := newMemProfiles()
	svc := newUsersService(t, profiles, &stubCredentials{})
	ctx := context.Background()

	if _, err := svc.GetProfile(ctx, "u1"); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	_ = profiles.Write(ctx, ProfilePath("u1"), Profile{Email: "juan@example.com", FirstName: "Juan", LastName: "Cruz", MobileNumber: "0917"})

	first := " Maria "
	updated, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{FirstName: &first})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Maria" || updated.LastName != "Cruz" || updated.Email != "juan@example.com" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	got, err := svc.GetProfile(ctx, "u1")
	if err != nil || got.FirstName != "Maria" {
		t.Fatalf("expected persisted update, got %+v err=%v", got, err)
	}

	empty := "  "
	if _, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{MobileNumber: &empty}); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	user := &User{ID: uuid.New(), Email: "juan@example.com", PasswordHash: "plain:old-password"}
	creds := &stubCredentials{user: user}
	svc := newUsersService(t, newMemProfiles(), creds)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID.String(), "wrong-password", "new-password"); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID.String(), "old-password", "short"); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID.String(), "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if creds.updated != "plain:new-password" {
		t.Fatalf("expected rehash, got %q", creds.updated)
	}
	if err := svc.ChangePassword(ctx, uuid.NewString(), "old-password", "new-password"); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordLoginRecreatesMissingProfile(t *testing.T) {
	profiles := newMemProfiles()
	user := &User{ID: uuid.New(), Email: "juan@example.com", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := RecordLogin(context.Background(), profiles, user, at); err != nil {
		t.Fatalf("record login: %v", err)
	}
	snap, _ := profiles.Read(context.Background(), ProfilePath(user.ID.String()))
	var profile Profile
	if err := snap.Decode(&profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if profile.Email != user.Email || profile.LastLogin == nil || !profile.LastLogin.Equal(at) {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
