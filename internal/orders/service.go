package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/internal/location"
	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

const (
	orderNotFoundMessage = "Order not found"
	// EmptyListMessage prompts users without orders.
	EmptyListMessage = "You haven't placed any orders yet."
)

// RecordStore is the subset of the record store the order views use.
type RecordStore interface {
	Write(ctx context.Context, path string, value any) error
	Read(ctx context.Context, path string) (recordstore.Snapshot, error)
	Subscribe(ctx context.Context, path string, fn func(recordstore.Snapshot)) (recordstore.Unsubscribe, error)
}

// OrderView is a record with its rendered status.
type OrderView struct {
	Record
	StatusDisplay StatusDisplay `json:"status_display"`
}

// ListView is the order list projection, newest first.
type ListView struct {
	Orders       []OrderView `json:"orders"`
	Empty        bool        `json:"empty"`
	EmptyMessage string      `json:"empty_message,omitempty"`
}

// OrderEvent replaces the previous single order projection.
type OrderEvent struct {
	Order    *OrderView             `json:"order,omitempty"`
	NotFound bool                   `json:"not_found"`
	Tracking *location.TrackingView `json:"tracking,omitempty"`
}

// Service exposes order reads, live views and operator updates.
type Service interface {
	Get(ctx context.Context, userID, orderID string) (*OrderView, error)
	List(ctx context.Context, userID string) (*ListView, error)
	Route(ctx context.Context, userID, orderID string) (*location.TrackingView, error)
	WatchOrder(ctx context.Context, userID, orderID string, fn func(OrderEvent)) (recordstore.Unsubscribe, error)
	WatchList(ctx context.Context, userID string, fn func(*ListView)) (recordstore.Unsubscribe, error)
	UpdateStatus(ctx context.Context, userID, orderID, status string) (*OrderView, error)
	UpdateCurrentLocation(ctx context.Context, userID, orderID string, coord types.Coordinate) (*OrderView, error)
}

// ServiceParams groups the dependencies of NewService.
type ServiceParams struct {
	Store   RecordStore
	Catalog catalog.Provider
	Tracker *location.Tracker
	Logger  *logger.Logger
}

type service struct {
	store   RecordStore
	catalog catalog.Provider
	tracker *location.Tracker
	logg    *logger.Logger

	// serializes read-modify-write updates
	updateMu sync.Mutex
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("record store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if params.Tracker == nil {
		return nil, fmt.Errorf("tracker required")
	}
	return &service{
		store:   params.Store,
		catalog: params.Catalog,
		tracker: params.Tracker,
		logg:    params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID string) (*OrderView, error) {
	rec, err := s.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return viewOf(rec), nil
}

func (s *service) List(ctx context.Context, userID string) (*ListView, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	snap, err := s.store.Read(ctx, ListPath(userID))
	if err != nil {
		return nil, err
	}
	return s.listOf(ctx, snap), nil
}

func (s *service) Route(ctx context.Context, userID, orderID string) (*location.TrackingView, error) {
	rec, err := s.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurantLocation(rec)
	if err != nil {
		return nil, err
	}
	view := s.tracker.View(ctx, restaurant, rec.DeliveryDetails.Coordinates, rec.CurrentLocation)
	return &view, nil
}

// WatchOrder emits the current order and every later replacement. Tracking
// is recomputed only when the courier position changes.
func (s *service) WatchOrder(ctx context.Context, userID, orderID string, fn func(OrderEvent)) (recordstore.Unsubscribe, error) {
	if err := requireIDs(userID, orderID); err != nil {
		return nil, err
	}
	var session *location.TrackingSession
	return s.store.Subscribe(ctx, Path(userID, orderID), func(snap recordstore.Snapshot) {
		rec, ok := s.decode(ctx, snap)
		if !ok {
			fn(OrderEvent{NotFound: true})
			return
		}
		event := OrderEvent{Order: viewOf(rec)}
		if restaurant, err := s.restaurantLocation(rec); err == nil {
			if session == nil {
				session = s.tracker.Session(restaurant, rec.DeliveryDetails.Coordinates)
			}
			view, _ := session.Update(ctx, rec.CurrentLocation)
			event.Tracking = &view
		}
		fn(event)
	})
}

func (s *service) WatchList(ctx context.Context, userID string, fn func(*ListView)) (recordstore.Unsubscribe, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	return s.store.Subscribe(ctx, ListPath(userID), func(snap recordstore.Snapshot) {
		fn(s.listOf(ctx, snap))
	})
}

// UpdateStatus stores any non-empty status; the set of statuses is open.
func (s *service) UpdateStatus(ctx context.Context, userID, orderID, status string) (*OrderView, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	return s.update(ctx, userID, orderID, func(rec *Record) {
		rec.Status = enums.OrderStatus(status)
	})
}

func (s *service) UpdateCurrentLocation(ctx context.Context, userID, orderID string, coord types.Coordinate) (*OrderView, error) {
	if err := coord.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coordinate")
	}
	return s.update(ctx, userID, orderID, func(rec *Record) {
		c := coord
		rec.CurrentLocation = &c
	})
}

func (s *service) update(ctx context.Context, userID, orderID string, fn func(*Record)) (*OrderView, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	rec, err := s.load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	fn(rec)
	if err := s.store.Write(ctx, Path(userID, orderID), rec); err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID), orderID)
		s.logg.Info(s.logg.WithField(logCtx, "status", rec.Status.String()), "orders.updated")
	}
	return viewOf(rec), nil
}

func (s *service) load(ctx context.Context, userID, orderID string) (*Record, error) {
	if err := requireIDs(userID, orderID); err != nil {
		return nil, err
	}
	snap, err := s.store.Read(ctx, Path(userID, orderID))
	if err != nil {
		return nil, err
	}
	rec, ok := s.decode(ctx, snap)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
	}
	return rec, nil
}

func (s *service) decode(ctx context.Context, snap recordstore.Snapshot) (*Record, bool) {
	if !snap.Exists {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(snap.Value, &rec); err != nil || rec.OrderID == "" {
		s.warnMalformed(ctx, snap.Path)
		return nil, false
	}
	return &rec, true
}

func (s *service) listOf(ctx context.Context, snap recordstore.Snapshot) *ListView {
	view := &ListView{Orders: []OrderView{}}
	if snap.Exists {
		var children map[string]json.RawMessage
		if err := json.Unmarshal(snap.Value, &children); err != nil {
			s.warnMalformed(ctx, snap.Path)
		}
		for key, raw := range children {
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil || rec.OrderID == "" {
				s.warnMalformed(ctx, snap.Path+"/"+key)
				continue
			}
			view.Orders = append(view.Orders, *viewOf(&rec))
		}
	}
	SortNewestFirst(view.Orders)
	if len(view.Orders) == 0 {
		view.Empty = true
		view.EmptyMessage = EmptyListMessage
	}
	return view
}

// SortNewestFirst orders views by creation time, newest first.
func SortNewestFirst(views []OrderView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
}

func (s *service) restaurantLocation(rec *Record) (types.Coordinate, error) {
	if len(rec.Items) == 0 {
		return types.Coordinate{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items")
	}
	restaurant, err := s.catalog.FindByName(rec.Items[0].RestaurantName)
	if err != nil {
		return types.Coordinate{}, err
	}
	return restaurant.Location, nil
}

func (s *service) warnMalformed(ctx context.Context, path string) {
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "record_path", path), "orders.malformed_record")
	}
}

func viewOf(rec *Record) *OrderView {
	return &OrderView{Record: *rec, StatusDisplay: DisplayFor(rec.Status)}
}

func requireIDs(userID string, ids ...string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if strings.Contains(userID, "/") {
		return pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
			return pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
		}
	}
	return nil
}

// ETA returns the delivery estimate for an order created at createdAt.
func ETA(createdAt time.Time, offset time.Duration) time.Time {
	return createdAt.Add(offset)
}
