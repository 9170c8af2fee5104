package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "pf:session:access:" + accessID
}

func newTestManager(t *testing.T, store *mockStore) *Manager {
	t.Helper()
	manager, err := NewManager(store, store, time.Hour, 15*time.Minute)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(t, store)
	ctx := context.Background()

	issued, err := manager.Generate(ctx, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	stored := store.data[store.AccessSessionKey(issued.AccessID)]
	if strings.Contains(stored, issued.RefreshToken) {
		t.Fatal("refresh token must not be stored in plain text")
	}
	if store.ttls[store.AccessSessionKey(issued.AccessID)] != time.Hour {
		t.Fatal("expected session ttl")
	}

	rotated, userID, err := manager.Rotate(ctx, issued.AccessID, issued.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if userID != "user-1" || rotated.AccessID == issued.AccessID || rotated.RefreshToken == issued.RefreshToken {
		t.Fatalf("unexpected rotation result %+v user=%s", rotated, userID)
	}
	if ok, _ := manager.HasSession(ctx, issued.AccessID); ok {
		t.Fatal("old session must be gone")
	}
	if ok, _ := manager.HasSession(ctx, rotated.AccessID); !ok {
		t.Fatal("new session must exist")
	}

	if _, _, err := manager.Rotate(ctx, issued.AccessID, issued.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected reuse to fail, got %v", err)
	}
}

func TestManagerRotateRejectsWrongToken(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(t, store)
	ctx := context.Background()

	issued, _ := manager.Generate(ctx, "user-1")
	if _, _, err := manager.Rotate(ctx, issued.AccessID, "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if ok, _ := manager.HasSession(ctx, issued.AccessID); !ok {
		t.Fatal("a failed rotation must keep the session")
	}

	store.data[store.AccessSessionKey("broken")] = "garbage"
	if _, _, err := manager.Rotate(ctx, "broken", "x"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid token for a malformed entry, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(t, store)
	ctx := context.Background()

	issued, _ := manager.Generate(ctx, "user-1")
	if err := manager.Revoke(ctx, issued.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, issued.AccessID); ok {
		t.Fatal("session must be revoked")
	}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	store := newMockStore()
	if _, err := NewManager(store, store, time.Minute, time.Hour); err == nil {
		t.Fatal("expected ttl error")
	}
	if _, err := NewManager(nil, store, time.Hour, time.Minute); err == nil {
		t.Fatal("expected store error")
	}
}
