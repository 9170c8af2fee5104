package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodorder-backend/api/responses"
	"github.com/angelmondragon/foodorder-backend/api/validators"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// AdminUpdateOrderStatus accepts any non-empty status; the set is open.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, orderID := chi.URLParam(r, "userId"), chi.URLParam(r, "orderId")
		view, err := svc.UpdateStatus(r.Context(), userID, orderID, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), orderID)
			logg.Info(logg.WithField(ctx, "status", body.Status), "admin.order_status_updated")
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminUpdateOrderLocation moves the courier position shown on tracking maps.
func AdminUpdateOrderLocation(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body coordinateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateCurrentLocation(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "orderId"), body.coordinate())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
