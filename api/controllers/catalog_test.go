package controllers

import (
	"net/http"
	"testing"

	"github.com/angelmondragon/foodorder-backend/internal/catalog"
)

func TestRestaurantListFiltersByQuery(t *testing.T) {
	provider := catalog.NewProvider()
	resp := serve(t, http.MethodGet, "/restaurants", "/restaurants?q=JOLLI", "", RestaurantList(provider), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body restaurantListResponse
	decodeData(t, resp, &body)
	if len(body.Restaurants) != 1 || body.Restaurants[0].Slug != "jollibee" {
		t.Fatalf("unexpected restaurants %+v", body.Restaurants)
	}
}

func TestRestaurantDetailFiltersMenu(t *testing.T) {
	provider := catalog.NewProvider()
	resp := serve(t, http.MethodGet, "/restaurants/{slug}", "/restaurants/jollibee?q=pie", "", RestaurantDetail(provider, nil), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body catalog.Restaurant
	decodeData(t, resp, &body)
	if len(body.Menu) != 1 || body.Menu[0].Name != "Peach Mango Pie" {
		t.Fatalf("unexpected menu %+v", body.Menu)
	}
}

func TestRestaurantDetailUnknownSlug(t *testing.T) {
	resp := serve(t, http.MethodGet, "/restaurants/{slug}", "/restaurants/nope", "", RestaurantDetail(catalog.NewProvider(), nil), nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if msg := decodeEnvelope(t, resp).Error.Message; msg != "Restaurant not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}
