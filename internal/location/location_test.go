package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/maps"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

type stubGeocoder struct {
	address string
	err     error
	delay   time.Duration
}

func (s stubGeocoder) Reverse(ctx context.Context, coord types.Coordinate) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.address, s.err
}

type stubRouter struct {
	mu    sync.Mutex
	calls [][]types.Coordinate
	route *maps.Route
	err   error
}

func (s *stubRouter) Route(ctx context.Context, points []types.Coordinate) (*maps.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, points)
	return s.route, s.err
}

var (
	jollibee = types.Coordinate{Lat: 14.5869, Lon: 120.9822}
	home     = types.Coordinate{Lat: 14.6091, Lon: 121.0223}
)

func TestPickResolvesAddress(t *testing.T) {
	picker, err := NewPicker(stubGeocoder{address: "Intramuros, Manila"}, time.Second, nil)
	if err != nil {
		t.Fatalf("new picker: %v", err)
	}
	got := make(chan Selection, 1)
	picker.Pick(context.Background(), home, func(_ context.Context, s Selection) { got <- s })
	picker.Wait()

	sel := <-got
	if sel.Address != "Intramuros, Manila" || !sel.Resolved || sel.Coordinate != home {
		t.Fatalf("unexpected selection %+v", sel)
	}
}

func TestPickGeocodeFailureUsesPlaceholder(t *testing.T) {
	picker, _ := NewPicker(stubGeocoder{err: errors.New("nominatim down")}, time.Second, nil)
	got := make(chan Selection, 1)
	picker.Pick(context.Background(), home, func(_ context.Context, s Selection) { got <- s })
	picker.Wait()

	sel := <-got
	if sel.Coordinate != home {
		t.Fatalf("expected clicked coordinate, got %+v", sel.Coordinate)
	}
	if sel.Address != PlaceholderAddress || sel.Resolved {
		t.Fatalf("expected placeholder selection, got %+v", sel)
	}
}

func TestPlaceholderAddressLabel(t *testing.T) {
	if PlaceholderAddress != "Selected Location" {
		t.Fatalf("unexpected placeholder label %q", PlaceholderAddress)
	}
}

func TestPickDoesNotBlockCaller(t *testing.T) {
	picker, _ := NewPicker(stubGeocoder{address: "slow", delay: 100 * time.Millisecond}, time.Second, nil)
	start := time.Now()
	picker.Pick(context.Background(), home, func(context.Context, Selection) {})
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("Pick must return before geocoding completes")
	}
	picker.Wait()
}

func TestPickSurvivesCallerCancellation(t *testing.T) {
	picker, _ := NewPicker(stubGeocoder{address: "Makati", delay: 20 * time.Millisecond}, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Selection, 1)
	picker.Pick(ctx, home, func(_ context.Context, s Selection) { got <- s })
	cancel()
	picker.Wait()
	if sel := <-got; sel.Address != "Makati" {
		t.Fatalf("expected resolution after request ended, got %+v", sel)
	}
}

func TestNewPreview(t *testing.T) {
	p := NewPreview(jollibee, home)
	if len(p.Line) != 2 || p.Line[0] != jollibee || p.Line[1] != home {
		t.Fatalf("unexpected preview line %+v", p.Line)
	}
	if p.Bounds.SouthWest != jollibee || p.Bounds.NorthEast != home {
		t.Fatalf("unexpected bounds %+v", p.Bounds)
	}
}

func TestTrackerViewRouted(t *testing.T) {
	router := &stubRouter{route: &maps.Route{Polyline: []types.Coordinate{jollibee, {Lat: 14.62, Lon: 121.0}, home}}}
	tracker, _ := NewTracker(router, nil)
	courier := types.Coordinate{Lat: 14.595, Lon: 121.0}

	view := tracker.View(context.Background(), jollibee, home, &courier)
	if !view.Routed || len(view.Polyline) != 3 {
		t.Fatalf("expected routed polyline, got %+v", view)
	}
	if len(router.calls) != 1 || len(router.calls[0]) != 3 || router.calls[0][1] != courier {
		t.Fatalf("expected three waypoints with courier in the middle, got %+v", router.calls)
	}
	if view.Padding != 50 {
		t.Fatalf("unexpected padding %d", view.Padding)
	}
	if view.Bounds.NorthEast.Lat != 14.62 {
		t.Fatalf("bounds must include the route, got %+v", view.Bounds)
	}
}

func TestTrackerViewFallsBackToStraightLine(t *testing.T) {
	tracker, _ := NewTracker(&stubRouter{err: errors.New("osrm down")}, nil)
	view := tracker.View(context.Background(), jollibee, home, nil)
	if view.Routed {
		t.Fatal("expected unrouted view")
	}
	if len(view.Polyline) != 2 || view.Polyline[0] != jollibee || view.Polyline[1] != home {
		t.Fatalf("expected straight waypoint line, got %+v", view.Polyline)
	}
}

func TestTrackingSessionRefitsOnlyOnMove(t *testing.T) {
	router := &stubRouter{route: &maps.Route{Polyline: []types.Coordinate{jollibee, home}}}
	tracker, _ := NewTracker(router, nil)
	session := tracker.Session(jollibee, home)
	ctx := context.Background()

	if _, changed := session.Update(ctx, nil); !changed {
		t.Fatal("first update must compute")
	}
	if _, changed := session.Update(ctx, nil); changed {
		t.Fatal("unchanged position must not recompute")
	}
	pos := types.Coordinate{Lat: 14.6, Lon: 121.0}
	if _, changed := session.Update(ctx, &pos); !changed {
		t.Fatal("new position must recompute")
	}
	same := pos
	if _, changed := session.Update(ctx, &same); changed {
		t.Fatal("equal position must not recompute")
	}
	if len(router.calls) != 2 {
		t.Fatalf("expected two routing calls, got %d", len(router.calls))
	}
}

func TestConstructorsRequireDeps(t *testing.T) {
	if _, err := NewPicker(nil, 0, nil); err == nil {
		t.Fatal("expected geocoder error")
	}
	if _, err := NewTracker(nil, nil); err == nil {
		t.Fatal("expected router error")
	}
}
