package checkout

import (
	"strings"
	"unicode"

	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

const (
	MsgLoginRequired    = "Please log in to place an order"
	MsgCartEmpty        = "Your cart is empty"
	MsgLocationRequired = "Please select a delivery location on the map"
	MsgPhoneRequired    = "Please enter your phone number"
	MsgCardDetails      = "Please fill in all card details"
	MsgGCashAccount     = "Please enter your GCash account number"
	MsgMayaAccount      = "Please enter your Maya account number"
	MsgPaymentMethod    = "Please select a payment method"
)

// DeliveryForm is the delivery half of a submission. Address and
// Coordinates come from the map selection only.
type DeliveryForm struct {
	Address      string
	PhoneNumber  string
	Instructions string
	Coordinates  *types.Coordinate
}

// PaymentForm holds the fields of every method; only the chosen method's
// fields are checked and kept.
type PaymentForm struct {
	Method        enums.PaymentMethod
	AccountNumber string
	CardNumber    string
	ExpiryDate    string
	CVV           string
}

// Submission is everything an order is assembled from.
type Submission struct {
	UserID   string
	Cart     *cart.View
	Delivery DeliveryForm
	Payment  PaymentForm
}

// Validate applies the checkout rules in order and returns the first
// failure.
func Validate(sub Submission) error {
	if blank(sub.UserID) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginRequired)
	}
	if sub.Cart == nil || len(sub.Cart.Items) == 0 {
		return invalid(MsgCartEmpty)
	}
	if sub.Delivery.Coordinates == nil || blank(sub.Delivery.Address) {
		return invalid(MsgLocationRequired)
	}
	if blank(sub.Delivery.PhoneNumber) {
		return invalid(MsgPhoneRequired)
	}
	return validatePayment(sub.Payment)
}

func validatePayment(p PaymentForm) error {
	switch p.Method {
	case enums.PaymentMethodCOD:
		return nil
	case enums.PaymentMethodCard:
		if blank(p.CardNumber) || blank(p.ExpiryDate) || blank(p.CVV) {
			return invalid(MsgCardDetails)
		}
		return nil
	case enums.PaymentMethodGCash:
		if blank(p.AccountNumber) {
			return invalid(MsgGCashAccount)
		}
		return nil
	case enums.PaymentMethodMaya:
		if blank(p.AccountNumber) {
			return invalid(MsgMayaAccount)
		}
		return nil
	default:
		return invalid(MsgPaymentMethod)
	}
}

// Details reduces the form to what is stored with the order.
func (p PaymentForm) Details() orders.PaymentDetails {
	details := orders.PaymentDetails{Method: p.Method}
	switch {
	case p.Method == enums.PaymentMethodCard:
		details.CardLast4 = lastFour(p.CardNumber)
		details.ExpiryDate = strings.TrimSpace(p.ExpiryDate)
	case p.Method.IsEWallet():
		details.AccountNumber = strings.TrimSpace(p.AccountNumber)
	}
	return details
}

func lastFour(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func invalid(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}
