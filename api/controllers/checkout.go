package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodorder-backend/api/responses"
	"github.com/angelmondragon/foodorder-backend/api/validators"
	"github.com/angelmondragon/foodorder-backend/internal/checkout"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

func (c coordinateRequest) coordinate() types.Coordinate {
	return types.Coordinate{Lat: *c.Lat, Lon: *c.Lon}
}

type paymentRequest struct {
	Method        string `json:"method"`
	AccountNumber string `json:"account_number"`
	CardNumber    string `json:"card_number"`
	ExpiryDate    string `json:"expiry_date"`
	CVV           string `json:"cvv"`
}

// Business rules (phone, payment fields) are checked by the service so the
// client gets its user-facing messages in order.
type placeOrderRequest struct {
	PhoneNumber  string         `json:"phone_number" validate:"max=32"`
	Instructions string         `json:"instructions" validate:"max=500"`
	Payment      paymentRequest `json:"payment"`
}

// CheckoutSelectLocation records the marker and starts reverse geocoding.
// The resolved address lands in the draft later, hence 202.
func CheckoutSelectLocation(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body coordinateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SelectLocation(r.Context(), userID, body.coordinate())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, view)
	}
}

func CheckoutGetLocation(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetLocation(r.Context(), userID, r.URL.Query().Get("restaurant"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CheckoutPlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.PlaceOrder(r.Context(), userID, checkout.PlaceOrderInput{
			PhoneNumber:  body.PhoneNumber,
			Instructions: body.Instructions,
			Payment: checkout.PaymentForm{
				Method:        enums.PaymentMethod(body.Payment.Method),
				AccountNumber: body.Payment.AccountNumber,
				CardNumber:    body.Payment.CardNumber,
				ExpiryDate:    body.Payment.ExpiryDate,
				CVV:           body.Payment.CVV,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
