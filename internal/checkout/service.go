package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/internal/location"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
	"github.com/google/uuid"
)

const (
	SuccessMessage = "Order placed successfully!"

	defaultDeliveryETA   = 30 * time.Minute
	defaultRedirectDelay = 2 * time.Second
	defaultRedirectPath  = "/orders"
)

// Checkout outcomes reported to the OutcomeRecorder.
const (
	OutcomePlaced   = "placed"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// RecordWriter persists placed orders.
type RecordWriter interface {
	Write(ctx context.Context, path string, value any) error
}

// OutcomeRecorder counts checkout attempts by outcome.
type OutcomeRecorder interface {
	CheckoutOutcome(outcome string)
}

// Picker resolves a picked coordinate in the background.
type Picker interface {
	Pick(ctx context.Context, coord types.Coordinate, onSelect func(context.Context, location.Selection))
}

// PlaceOrderInput is the form part of a submission; the delivery point
// comes from the user's draft.
type PlaceOrderInput struct {
	PhoneNumber  string
	Instructions string
	Payment      PaymentForm
}

// Redirect tells the caller where to go once the order is placed.
type Redirect struct {
	Path    string `json:"path"`
	AfterMS int64  `json:"after_ms"`
}

// Receipt is returned for a placed order.
type Receipt struct {
	Order    orders.Record `json:"order"`
	Message  string        `json:"message"`
	Redirect Redirect      `json:"redirect"`
}

// LocationView is the picker state of a checkout.
type LocationView struct {
	Center     types.Coordinate    `json:"center"`
	Marker     *types.Coordinate   `json:"marker,omitempty"`
	Selection  *location.Selection `json:"selection,omitempty"`
	Restaurant *types.Coordinate   `json:"restaurant,omitempty"`
	Preview    *location.Preview   `json:"preview,omitempty"`
}

// Service assembles orders from a user's cart and checkout draft.
type Service interface {
	SelectLocation(ctx context.Context, userID string, coord types.Coordinate) (*LocationView, error)
	GetLocation(ctx context.Context, userID, restaurantSlug string) (*LocationView, error)
	PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*Receipt, error)
	DiscardDraft(ctx context.Context, userID string) error
}

// ServiceParams groups the dependencies of NewService.
type ServiceParams struct {
	Cart    cart.Service
	Catalog catalog.Provider
	Records RecordWriter
	Picker  Picker
	KV      KV
	Keys    Keyer
	Metrics OutcomeRecorder
	Logger  *logger.Logger

	DeliveryETA   time.Duration
	RedirectDelay time.Duration
	RedirectPath  string
	InFlightTTL   time.Duration
	DraftTTL      time.Duration

	Clock func() time.Time
	NewID func() (uuid.UUID, error)
}

type service struct {
	cart    cart.Service
	catalog catalog.Provider
	records RecordWriter
	picker  Picker
	drafts  *draftStore
	guard   *inFlight
	metrics OutcomeRecorder
	logg    *logger.Logger

	eta      time.Duration
	redirect Redirect
	now      func() time.Time
	newID    func() (uuid.UUID, error)
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if params.Records == nil {
		return nil, fmt.Errorf("record writer required")
	}
	if params.Picker == nil {
		return nil, fmt.Errorf("location picker required")
	}
	if params.KV == nil || params.Keys == nil {
		return nil, fmt.Errorf("checkout kv store required")
	}

	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewV7
	}
	redirect := Redirect{Path: params.RedirectPath, AfterMS: params.RedirectDelay.Milliseconds()}
	if redirect.Path == "" {
		redirect.Path = defaultRedirectPath
	}
	if params.RedirectDelay <= 0 {
		redirect.AfterMS = defaultRedirectDelay.Milliseconds()
	}

	return &service{
		cart:     params.Cart,
		catalog:  params.Catalog,
		records:  params.Records,
		picker:   params.Picker,
		drafts:   &draftStore{kv: params.KV, keys: params.Keys, ttl: orDefault(params.DraftTTL, defaultDraftTTL), now: now},
		guard:    &inFlight{kv: params.KV, keys: params.Keys, ttl: orDefault(params.InFlightTTL, defaultInFlightTTL), logg: logg},
		metrics:  params.Metrics,
		logg:     logg,
		eta:      orDefault(params.DeliveryETA, defaultDeliveryETA),
		redirect: redirect,
		now:      now,
		newID:    newID,
	}, nil
}

// SelectLocation moves the marker at once and resolves the address in the
// background. The resolved selection lands in the draft when the geocode
// finishes, placeholder address included, as long as the marker still
// sits on the picked point.
func (s *service) SelectLocation(ctx context.Context, userID string, coord types.Coordinate) (*LocationView, error) {
	if blank(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := coord.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coordinate")
	}
	draft, err := s.drafts.update(ctx, userID, func(d *Draft) {
		c := coord
		d.Marker = &c
	})
	if err != nil {
		return nil, draftError(err)
	}

	s.picker.Pick(ctx, coord, func(bg context.Context, sel location.Selection) {
		// a placed order or a newer pick supersedes this result
		_, saved, err := s.drafts.updateIf(bg, userID, func(d *Draft) bool {
			if d.Marker == nil || *d.Marker != sel.Coordinate {
				return false
			}
			picked := sel
			d.Selection = &picked
			return true
		})
		logCtx := s.logg.WithUserID(bg, userID)
		switch {
		case err != nil:
			s.logg.Error(logCtx, "checkout.selection_save_failed", err)
		case !saved:
			s.logg.Debug(logCtx, "checkout.selection_superseded")
		}
	})
	return s.locationView(draft, nil), nil
}

func (s *service) GetLocation(ctx context.Context, userID, restaurantSlug string) (*LocationView, error) {
	if blank(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var restaurant *catalog.Restaurant
	if slug := strings.TrimSpace(restaurantSlug); slug != "" {
		r, err := s.catalog.FindBySlug(slug)
		if err != nil {
			return nil, err
		}
		restaurant = r
	}
	draft, err := s.drafts.load(ctx, userID)
	if err != nil {
		return nil, draftError(err)
	}
	return s.locationView(draft, restaurant), nil
}

func (s *service) DiscardDraft(ctx context.Context, userID string) error {
	if blank(userID) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.drafts.remove(ctx, userID); err != nil {
		return draftError(err)
	}
	return nil
}

func (s *service) locationView(draft *Draft, restaurant *catalog.Restaurant) *LocationView {
	view := &LocationView{
		Center:    location.DefaultCenter,
		Marker:    draft.Marker,
		Selection: draft.Selection,
	}
	if draft.Marker != nil {
		view.Center = *draft.Marker
	}
	if restaurant != nil {
		loc := restaurant.Location
		view.Restaurant = &loc
		if draft.Selection != nil {
			preview := location.NewPreview(loc, draft.Selection.Coordinate)
			view.Preview = &preview
		}
	}
	return view
}

// PlaceOrder validates the submission, writes the order and clears the
// cart. Nothing is written when validation fails, and the cart is kept
// when the write fails.
func (s *service) PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*Receipt, error) {
	if blank(userID) {
		s.record(OutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginRequired)
	}
	ctx = s.logg.WithUserID(ctx, userID)
	if input.Payment.Method == "" {
		input.Payment.Method = enums.PaymentMethodCOD
	}

	release, err := s.guard.acquire(ctx, userID)
	if err != nil {
		s.record(outcomeOf(err))
		return nil, err
	}
	defer release(ctx)

	draft, err := s.drafts.load(ctx, userID)
	if err != nil {
		s.record(OutcomeFailed)
		return nil, draftError(err)
	}

	var placed *orders.Record
	err = s.cart.Drain(ctx, userID, func(view *cart.View) error {
		sub := Submission{
			UserID:  userID,
			Cart:    view,
			Payment: input.Payment,
			Delivery: DeliveryForm{
				PhoneNumber:  input.PhoneNumber,
				Instructions: input.Instructions,
			},
		}
		if draft.Selection != nil {
			coord := draft.Selection.Coordinate
			sub.Delivery.Coordinates = &coord
			sub.Delivery.Address = draft.Selection.Address
		}
		if err := Validate(sub); err != nil {
			return err
		}

		rec, err := s.assemble(sub)
		if err != nil {
			return err
		}
		if err := s.records.Write(ctx, orders.Path(userID, rec.OrderID), rec); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, rec.OrderID), "checkout.write_failed", err)
			return pkgerrors.Wrap(pkgerrors.CodeOrderFailed, err, "Failed to place order")
		}
		placed = rec
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrClearFailed) && placed != nil:
		s.logg.Warn(s.logg.WithError(s.logg.WithOrderID(ctx, placed.OrderID), err), "checkout.cart_clear_failed")
	default:
		s.record(outcomeOf(err))
		return nil, err
	}

	if err := s.drafts.remove(ctx, userID); err != nil {
		s.logg.Warn(s.logg.WithError(s.logg.WithOrderID(ctx, placed.OrderID), err), "checkout.draft_clear_failed")
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, placed.OrderID), map[string]any{
		"payment_method": placed.PaymentDetails.Method.String(),
		"item_count":     len(placed.Items),
		"total_minor":    placed.TotalPrice.Minor,
	})
	s.logg.Info(logCtx, "checkout.placed")
	s.record(OutcomePlaced)

	return &Receipt{Order: *placed, Message: SuccessMessage, Redirect: s.redirect}, nil
}

func (s *service) assemble(sub Submission) (*orders.Record, error) {
	id, err := s.newID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}
	createdAt := s.now().UTC()
	items := make([]cart.Item, len(sub.Cart.Items))
	copy(items, sub.Cart.Items)

	return &orders.Record{
		OrderID:    id.String(),
		UserID:     sub.UserID,
		Items:      items,
		TotalPrice: sub.Cart.TotalPrice,
		DeliveryDetails: orders.DeliveryDetails{
			Address:      sub.Delivery.Address,
			PhoneNumber:  strings.TrimSpace(sub.Delivery.PhoneNumber),
			Instructions: strings.TrimSpace(sub.Delivery.Instructions),
			Coordinates:  *sub.Delivery.Coordinates,
		},
		PaymentDetails:        sub.Payment.Details(),
		Status:                enums.OrderStatusPreparing,
		CreatedAt:             createdAt,
		EstimatedDeliveryTime: orders.ETA(createdAt, s.eta),
	}, nil
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.CheckoutOutcome(outcome)
	}
}

func outcomeOf(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return OutcomeFailed
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeUnauthorized:
		return OutcomeInvalid
	case pkgerrors.CodeConflict:
		return OutcomeConflict
	default:
		return OutcomeFailed
	}
}

func draftError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout draft unavailable")
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
