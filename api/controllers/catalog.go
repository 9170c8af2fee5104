package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodorder-backend/api/responses"
	"github.com/angelmondragon/foodorder-backend/api/validators"
	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

type restaurantListResponse struct {
	Restaurants []catalog.Restaurant `json:"restaurants"`
	Query       string               `json:"query,omitempty"`
}

// RestaurantList returns the catalog, optionally narrowed by ?q=.
func RestaurantList(provider catalog.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := validators.SearchQuery(r, "q")
		responses.WriteSuccess(w, restaurantListResponse{Restaurants: provider.Search(q), Query: q})
	}
}

// RestaurantDetail returns one restaurant with its menu filtered by ?q=.
func RestaurantDetail(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurant, err := provider.FindBySlug(chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurant.Menu = restaurant.FilterMenu(validators.SearchQuery(r, "q"))
		responses.WriteSuccess(w, restaurant)
	}
}
