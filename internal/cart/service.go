package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/money"
)

const defaultSlotTTL = 7 * 24 * time.Hour

// View is the cart as returned to callers.
type View struct {
	Items          []Item       `json:"items"`
	TotalItemCount int          `json:"total_item_count"`
	TotalPrice     money.Amount `json:"total_price"`
}

// AddItemInput identifies a menu item by restaurant slug and item name.
type AddItemInput struct {
	Restaurant string
	Item       string
	Quantity   int
}

// Service exposes the per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID string) (*View, error)
	AddItem(ctx context.Context, userID string, input AddItemInput) (*View, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*View, error)
	Clear(ctx context.Context, userID string) error
	Drain(ctx context.Context, userID string, fn func(*View) error) error
}

// ErrClearFailed reports that Drain's callback succeeded but the slot could
// not be removed afterwards.
var ErrClearFailed = errors.New("cart clear failed")

// ServiceParams groups the dependencies of NewService.
type ServiceParams struct {
	Slot    Slot
	Keys    Keyer
	Catalog catalog.Provider
	SlotTTL time.Duration
	Logger  *logger.Logger
}

type service struct {
	store   *slotStore
	catalog catalog.Provider
	locks   *userLocks
	logg    *logger.Logger
}

// NewService builds a cart service persisting through the provided slot.
func NewService(params ServiceParams) (Service, error) {
	if params.Slot == nil {
		return nil, fmt.Errorf("cart slot required")
	}
	if params.Keys == nil {
		return nil, fmt.Errorf("cart key builder required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	ttl := params.SlotTTL
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store: &slotStore{
			slot: params.Slot,
			keys: params.Keys,
			ttl:  ttl,
			logg: logg,
		},
		catalog: params.Catalog,
		locks:   newUserLocks(),
		logg:    logg,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	release := s.locks.lock(userID)
	defer release()

	c, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return viewOf(c)
}

func (s *service) AddItem(ctx context.Context, userID string, input AddItemInput) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	restaurant, err := s.catalog.FindBySlug(input.Restaurant)
	if err != nil {
		return nil, err
	}
	menuItem, ok := restaurant.Item(strings.TrimSpace(input.Item))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	candidate := Candidate{
		Name:           menuItem.Name,
		RestaurantName: restaurant.Name,
		UnitPrice:      menuItem.Price,
		ImageRef:       menuItem.ImageRef,
	}

	view, err := s.mutate(ctx, userID, func(c *Cart) {
		for i := 0; i < quantity; i++ {
			c.Add(candidate)
		}
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithRestaurant(s.logg.WithUserID(ctx, userID), restaurant.Slug)
	s.logg.Debug(s.logg.WithFields(logCtx, map[string]any{"item": menuItem.Name, "quantity": quantity}), "cart.item_added")
	return view, nil
}

func (s *service) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	view, err := s.mutate(ctx, userID, func(c *Cart) {
		c.SetQuantity(itemID, quantity)
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithCartItemID(s.logg.WithUserID(ctx, userID), itemID)
	s.logg.Debug(s.logg.WithField(logCtx, "quantity", quantity), "cart.quantity_set")
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID string) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	view, err := s.mutate(ctx, userID, func(c *Cart) {
		c.Remove(itemID)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Debug(s.logg.WithCartItemID(s.logg.WithUserID(ctx, userID), itemID), "cart.item_removed")
	return view, nil
}

// Clear empties the cart and removes its slot entry.
func (s *service) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	release := s.locks.lock(userID)
	defer release()

	if err := s.store.remove(ctx, userID); err != nil {
		return storageError(err)
	}
	return nil
}

// Drain hands fn a snapshot of the cart while holding the user's lock and
// clears the cart when fn succeeds. The cart is untouched when fn fails.
func (s *service) Drain(ctx context.Context, userID string, fn func(*View) error) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	release := s.locks.lock(userID)
	defer release()

	c, err := s.store.load(ctx, userID)
	if err != nil {
		return storageError(err)
	}
	view, err := viewOf(c)
	if err != nil {
		return err
	}
	if err := fn(view); err != nil {
		return err
	}
	if err := s.store.remove(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrClearFailed, err)
	}
	return nil
}

func (s *service) mutate(ctx context.Context, userID string, fn func(*Cart)) (*View, error) {
	release := s.locks.lock(userID)
	defer release()

	c, err := s.store.load(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	fn(c)
	if err := s.store.save(ctx, userID, c); err != nil {
		return nil, storageError(err)
	}
	return viewOf(c)
}

func viewOf(c *Cart) (*View, error) {
	total, err := c.TotalPrice()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "cart mixes currencies")
	}
	return &View{
		Items:          c.Items(),
		TotalItemCount: c.TotalItemCount(),
		TotalPrice:     total,
	}, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func storageError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart storage unavailable")
}
