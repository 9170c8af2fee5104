package orders

import (
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/angelmondragon/foodorder-backend/pkg/money"
	"github.com/angelmondragon/foodorder-backend/pkg/types"
)

const ordersRoot = "orders"

// DeliveryDetails is where and to whom an order goes.
type DeliveryDetails struct {
	Address      string           `json:"address"`
	PhoneNumber  string           `json:"phone_number"`
	Instructions string           `json:"instructions,omitempty"`
	Coordinates  types.Coordinate `json:"coordinates"`
}

// PaymentDetails keeps only the fields of the chosen method. Card numbers
// are reduced to their last four digits and the cvv is never stored.
type PaymentDetails struct {
	Method        enums.PaymentMethod `json:"method"`
	AccountNumber string              `json:"account_number,omitempty"`
	CardLast4     string              `json:"card_last4,omitempty"`
	ExpiryDate    string              `json:"expiry_date,omitempty"`
}

// Record is an order as stored at orders/{userId}/{orderId}.
type Record struct {
	OrderID               string            `json:"order_id"`
	UserID                string            `json:"user_id"`
	Items                 []cart.Item       `json:"items"`
	TotalPrice            money.Amount      `json:"total_price"`
	DeliveryDetails       DeliveryDetails   `json:"delivery_details"`
	PaymentDetails        PaymentDetails    `json:"payment_details"`
	Status                enums.OrderStatus `json:"status"`
	CreatedAt             time.Time         `json:"created_at"`
	EstimatedDeliveryTime time.Time         `json:"estimated_delivery_time"`
	CurrentLocation       *types.Coordinate `json:"current_location,omitempty"`
}

// Path is the record store location of one order.
func Path(userID, orderID string) string {
	return recordstore.Join(ordersRoot, userID, orderID)
}

// ListPath is the record store location of a user's orders.
func ListPath(userID string) string {
	return recordstore.Join(ordersRoot, userID)
}
