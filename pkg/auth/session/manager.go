package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the key/value surface sessions live in. Get returns redis.Nil
// for a missing key.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type Keyer interface {
	AccessSessionKey(accessID string) string
}

// Issued is a freshly created session.
type Issued struct {
	AccessID     string
	RefreshToken string
}

// Manager stores refresh sessions keyed by access id. Each entry holds the
// owning user id and a digest of the refresh token.
type Manager struct {
	store Store
	keyer Keyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager builds a manager. ttl must exceed the access token lifetime so
// an expired access token can still be refreshed.
func NewManager(store Store, keyer Keyer, ttl, accessTTL time.Duration) (*Manager, error) {
	if store == nil || keyer == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, keyer: keyer, ttl: ttl}, nil
}

// Generate opens a session for userID.
func (m *Manager) Generate(ctx context.Context, userID string) (Issued, error) {
	if strings.TrimSpace(userID) == "" {
		return Issued{}, fmt.Errorf("user id is required")
	}
	issued := Issued{AccessID: NewAccessID()}
	token, err := generateRefreshToken()
	if err != nil {
		return Issued{}, err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(issued.AccessID), encodeEntry(userID, token), m.ttl); err != nil {
		return Issued{}, err
	}
	issued.RefreshToken = token
	return issued, nil
}

// Rotate checks provided against the session of oldAccessID, replaces it with
// a new session and returns the new session with its owner.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Issued, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return Issued{}, "", ErrInvalidRefreshToken
	}
	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return Issued{}, "", wrapNotFound(err)
	}
	userID, digest, ok := decodeEntry(stored)
	if !ok || subtle.ConstantTimeCompare([]byte(digest), []byte(digestOf(provided))) != 1 {
		return Issued{}, "", ErrInvalidRefreshToken
	}

	issued, err := m.Generate(ctx, userID)
	if err != nil {
		return Issued{}, "", err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return Issued{}, "", err
	}
	return issued, userID, nil
}

// Revoke ends the session tied to accessID.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digestOf(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func encodeEntry(userID, token string) string {
	return userID + "|" + digestOf(token)
}

func decodeEntry(stored string) (string, string, bool) {
	userID, digest, ok := strings.Cut(stored, "|")
	if !ok || userID == "" || digest == "" {
		return "", "", false
	}
	return userID, digest, true
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
