package location

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/maps"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

// FitPadding is the pixel padding clients apply when fitting bounds.
const FitPadding = 50

// Router returns a drivable line through waypoints.
type Router interface {
	Route(ctx context.Context, points []types.Coordinate) (*maps.Route, error)
}

// Preview is the straight restaurant to delivery line shown before ordering.
type Preview struct {
	Restaurant types.Coordinate   `json:"restaurant"`
	Delivery   types.Coordinate   `json:"delivery"`
	Line       []types.Coordinate `json:"line"`
	Bounds     types.Bounds       `json:"bounds"`
}

// NewPreview draws the visual-only line between restaurant and delivery.
func NewPreview(restaurant, delivery types.Coordinate) Preview {
	line := []types.Coordinate{restaurant, delivery}
	bounds, _ := types.BoundsOf(line)
	return Preview{Restaurant: restaurant, Delivery: delivery, Line: line, Bounds: bounds}
}

// TrackingView is what the order map renders.
type TrackingView struct {
	Waypoints []types.Coordinate `json:"waypoints"`
	Polyline  []types.Coordinate `json:"polyline"`
	Bounds    types.Bounds       `json:"bounds"`
	Center    types.Coordinate   `json:"center"`
	Padding   int                `json:"padding"`
	Routed    bool               `json:"routed"`
}

// Tracker computes order tracking views.
type Tracker struct {
	router Router
	logg   *logger.Logger
}

func NewTracker(router Router, logg *logger.Logger) (*Tracker, error) {
	if router == nil {
		return nil, fmt.Errorf("router required")
	}
	return &Tracker{router: router, logg: logg}, nil
}

// View routes restaurant, the optional live position, then delivery. A
// routing failure falls back to straight segments between the waypoints.
func (t *Tracker) View(ctx context.Context, restaurant, delivery types.Coordinate, current *types.Coordinate) TrackingView {
	waypoints := []types.Coordinate{restaurant}
	if current != nil {
		waypoints = append(waypoints, *current)
	}
	waypoints = append(waypoints, delivery)

	view := TrackingView{
		Waypoints: waypoints,
		Polyline:  waypoints,
		Padding:   FitPadding,
		Center: types.Coordinate{
			Lat: (restaurant.Lat + delivery.Lat) / 2,
			Lon: (restaurant.Lon + delivery.Lon) / 2,
		},
	}

	route, err := t.router.Route(ctx, waypoints)
	if err == nil && route != nil && len(route.Polyline) > 1 {
		view.Polyline = route.Polyline
		view.Routed = true
	} else if t.logg != nil {
		t.logg.Warn(t.logg.WithField(ctx, "waypoints", len(waypoints)), "location.route_failed")
	}

	fit := append(append([]types.Coordinate{}, waypoints...), view.Polyline...)
	view.Bounds, _ = types.BoundsOf(fit)
	return view
}

// TrackingSession recomputes the tracking view only when the live position moves.
type TrackingSession struct {
	tracker    *Tracker
	restaurant types.Coordinate
	delivery   types.Coordinate

	started bool
	current *types.Coordinate
	view    TrackingView
}

func (t *Tracker) Session(restaurant, delivery types.Coordinate) *TrackingSession {
	return &TrackingSession{tracker: t, restaurant: restaurant, delivery: delivery}
}

// Update returns the view for current and whether it was recomputed.
func (s *TrackingSession) Update(ctx context.Context, current *types.Coordinate) (TrackingView, bool) {
	if s.started && samePosition(s.current, current) {
		return s.view, false
	}
	s.started = true
	if current != nil {
		c := *current
		s.current = &c
	} else {
		s.current = nil
	}
	s.view = s.tracker.View(ctx, s.restaurant, s.delivery, s.current)
	return s.view, true
}

func samePosition(a, b *types.Coordinate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
