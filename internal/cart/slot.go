package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Slot is the durable key/value storage holding serialized carts.
// Get must return redis.Nil for a missing key.
type Slot interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Keyer names the slot key of a user's cart.
type Keyer interface {
	CartKey(userID string) string
}

type slotStore struct {
	slot Slot
	keys Keyer
	ttl  time.Duration
	logg *logger.Logger
}

// load rehydrates a cart. A missing key is an empty cart; unreadable data is
// discarded and the key removed.
func (s *slotStore) load(ctx context.Context, userID string) (*Cart, error) {
	key := s.keys.CartKey(userID)
	raw, err := s.slot.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return New(nil), nil
	}
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil || !New(items).valid() {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cart_key", key), "cart.slot_corrupt")
		}
		if delErr := s.slot.Del(ctx, key); delErr != nil {
			return nil, delErr
		}
		return New(nil), nil
	}
	return New(items), nil
}

// save writes the whole cart, or deletes the key when the cart is empty.
func (s *slotStore) save(ctx context.Context, userID string, c *Cart) error {
	key := s.keys.CartKey(userID)
	if c.IsEmpty() {
		return s.slot.Del(ctx, key)
	}
	payload, err := json.Marshal(c.Items())
	if err != nil {
		return err
	}
	return s.slot.Set(ctx, key, string(payload), s.ttl)
}

func (s *slotStore) remove(ctx context.Context, userID string) error {
	return s.slot.Del(ctx, s.keys.CartKey(userID))
}
