// Package location implements the map interactions: picking a delivery point,
// previewing it against the restaurant, and tracking a courier.
package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

// PlaceholderAddress labels a pick whose address could not be resolved.
const PlaceholderAddress = "Selected Location"

const defaultGeocodeTimeout = 10 * time.Second

// DefaultCenter is where the picker map opens (Manila).
var DefaultCenter = types.Coordinate{Lat: 14.5995, Lon: 120.9842}

// Geocoder resolves a coordinate to a display address.
type Geocoder interface {
	Reverse(ctx context.Context, coord types.Coordinate) (string, error)
}

// Selection is a picked delivery point with its address.
type Selection struct {
	Coordinate types.Coordinate `json:"coordinate"`
	Address    string           `json:"address"`
	Resolved   bool             `json:"resolved"`
}

// Picker resolves picked points in the background.
type Picker struct {
	geocoder Geocoder
	timeout  time.Duration
	logg     *logger.Logger
	inflight sync.WaitGroup
}

// NewPicker builds a picker. timeout bounds each reverse geocode.
func NewPicker(geocoder Geocoder, timeout time.Duration, logg *logger.Logger) (*Picker, error) {
	if geocoder == nil {
		return nil, fmt.Errorf("geocoder required")
	}
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}
	return &Picker{geocoder: geocoder, timeout: timeout, logg: logg}, nil
}

// Pick starts resolving coord and returns at once. onSelect always runs
// exactly once, with the placeholder address when geocoding fails. Earlier
// picks are not cancelled; callers drop results for superseded points.
func (p *Picker) Pick(ctx context.Context, coord types.Coordinate, onSelect func(context.Context, Selection)) {
	bg := context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		onSelect(bg, p.resolve(bg, coord))
	}()
}

// Wait blocks until every started pick has invoked its callback.
func (p *Picker) Wait() {
	p.inflight.Wait()
}

func (p *Picker) resolve(ctx context.Context, coord types.Coordinate) Selection {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	address, err := p.geocoder.Reverse(ctx, coord)
	if err != nil || address == "" {
		if p.logg != nil {
			logCtx := p.logg.WithFields(ctx, map[string]any{"lat": coord.Lat, "lon": coord.Lon})
			p.logg.Warn(logCtx, "location.geocode_failed")
		}
		return Selection{Coordinate: coord, Address: PlaceholderAddress}
	}
	return Selection{Coordinate: coord, Address: address, Resolved: true}
}
