package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	geocoderName        = "nominatim"
)

// Geocoder resolves coordinates to display addresses through Nominatim.
type Geocoder struct {
	http    *resty.Client
	breaker *Breaker
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error"`
}

// NewGeocoder builds a Nominatim reverse geocoder.
func NewGeocoder(cfg Config, opts ...Option) *Geocoder {
	o := buildOptions(cfg, DefaultNominatimURL, opts)
	return &Geocoder{
		http:    newRestyClient(cfg, o),
		breaker: NewBreaker(geocoderName, cfg.Breaker, o.observer, o.logg),
	}
}

// Reverse returns the display name of the place at coord.
func (g *Geocoder) Reverse(ctx context.Context, coord types.Coordinate) (string, error) {
	if g == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "geocoder not configured")
	}
	if err := coord.Validate(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coordinate")
	}

	result, err := g.breaker.Execute(func() (any, error) {
		resp, err := g.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"format": "json",
				"lat":    strconv.FormatFloat(coord.Lat, 'f', -1, 64),
				"lon":    strconv.FormatFloat(coord.Lon, 'f', -1, 64),
			}).
			Get("/reverse")
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute reverse geocode request")
		}
		switch resp.StatusCode() {
		case http.StatusOK:
		case http.StatusTooManyRequests:
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "geocoder rate limit exceeded")
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode()), "reverse geocode request failed")
		}

		var payload nominatimResponse
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode reverse geocode response")
		}
		address := strings.TrimSpace(payload.DisplayName)
		if address == "" {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("nominatim: %s", payload.Error), "no address at coordinate")
		}
		return address, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
