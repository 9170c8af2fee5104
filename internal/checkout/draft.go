package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/location"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
	"github.com/redis/go-redis/v9"
)

const defaultDraftTTL = 24 * time.Hour

// KV is the redis surface checkout keeps its per-user state in.
// Get must return redis.Nil for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Keyer names the checkout keys of a user.
type Keyer interface {
	CheckoutDraftKey(userID string) string
	InFlightKey(userID string) string
}

// Draft is the map state of a checkout in progress. Marker is the latest
// pick; Selection is the latest resolved pick and is what an order uses.
type Draft struct {
	Marker    *types.Coordinate   `json:"marker,omitempty"`
	Selection *location.Selection `json:"selection,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type draftStore struct {
	kv   KV
	keys Keyer
	ttl  time.Duration
	now  func() time.Time

	mu sync.Mutex
}

func (d *draftStore) load(ctx context.Context, userID string) (*Draft, error) {
	raw, err := d.kv.Get(ctx, d.keys.CheckoutDraftKey(userID))
	if errors.Is(err, redis.Nil) {
		return &Draft{}, nil
	}
	if err != nil {
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return &Draft{}, nil
	}
	return &draft, nil
}

// update applies fn to the stored draft and writes it back.
func (d *draftStore) update(ctx context.Context, userID string, fn func(*Draft)) (*Draft, error) {
	draft, _, err := d.updateIf(ctx, userID, func(dr *Draft) bool {
		fn(dr)
		return true
	})
	return draft, err
}

// updateIf writes the draft back only when fn reports a change.
func (d *draftStore) updateIf(ctx context.Context, userID string, fn func(*Draft) bool) (*Draft, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft, err := d.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !fn(draft) {
		return draft, false, nil
	}
	draft.UpdatedAt = d.now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, false, err
	}
	if err := d.kv.Set(ctx, d.keys.CheckoutDraftKey(userID), string(payload), d.ttl); err != nil {
		return nil, false, err
	}
	return draft, true, nil
}

func (d *draftStore) remove(ctx context.Context, userID string) error {
	return d.kv.Del(ctx, d.keys.CheckoutDraftKey(userID))
}
