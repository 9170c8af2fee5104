package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultOSRMURL = "https://router.project-osrm.org"
	routerName     = "osrm"
)

// Route is a drivable path through a list of waypoints.
type Route struct {
	Polyline        []types.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
}

// Router requests driving routes from an OSRM server.
type Router struct {
	http    *resty.Client
	breaker *Breaker
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// NewRouter builds an OSRM routing client.
func NewRouter(cfg Config, opts ...Option) *Router {
	o := buildOptions(cfg, DefaultOSRMURL, opts)
	return &Router{
		http:    newRestyClient(cfg, o),
		breaker: NewBreaker(routerName, cfg.Breaker, o.observer, o.logg),
	}
}

// Route returns the driving route visiting points in order.
func (r *Router) Route(ctx context.Context, points []types.Coordinate) (*Route, error) {
	if r == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "router not configured")
	}
	if len(points) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least two waypoints are required")
	}
	encoded := make([]string, 0, len(points))
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waypoint")
		}
		encoded = append(encoded, p.LonLat())
	}

	result, err := r.breaker.Execute(func() (any, error) {
		resp, err := r.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"overview":   "full",
				"geometries": "geojson",
			}).
			Get("/route/v1/driving/" + strings.Join(encoded, ";"))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode()), "route request failed")
		}

		var payload osrmResponse
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
		}
		if payload.Code != "Ok" || len(payload.Routes) == 0 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("osrm %s: %s", payload.Code, payload.Message), "no route found")
		}

		best := payload.Routes[0]
		line := make([]types.Coordinate, 0, len(best.Geometry.Coordinates))
		for _, pair := range best.Geometry.Coordinates {
			if len(pair) < 2 {
				continue
			}
			line = append(line, types.Coordinate{Lat: pair[1], Lon: pair[0]})
		}
		return &Route{
			Polyline:        line,
			DistanceMeters:  best.Distance,
			DurationSeconds: best.Duration,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Route), nil
}
