package cart

import (
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/angelmondragon/foodorder-backend/pkg/money"
)

// Item is one line of a cart. ID is unique per restaurant and menu item.
type Item struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	RestaurantName string       `json:"restaurant"`
	UnitPrice      money.Amount `json:"unit_price"`
	ImageRef       string       `json:"image"`
	Quantity       int          `json:"quantity"`
}

// Candidate is an item offered for addition; quantity is decided by the cart.
type Candidate struct {
	Name           string
	RestaurantName string
	UnitPrice      money.Amount
	ImageRef       string
}

// ItemID builds the cart identity of a menu item.
func ItemID(restaurantName, itemName string) string {
	return restaurantName + "-" + itemName
}

// Cart is an ordered list of items. Insertion order is kept.
type Cart struct {
	items []Item
}

// New returns a cart holding a copy of items.
func New(items []Item) *Cart {
	c := &Cart{items: make([]Item, 0, len(items))}
	c.items = append(c.items, items...)
	return c
}

// Add increments the matching line or appends a new one with quantity 1.
func (c *Cart) Add(candidate Candidate) Item {
	id := ItemID(candidate.RestaurantName, candidate.Name)
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity++
			return c.items[i]
		}
	}
	item := Item{
		ID:             id,
		Name:           candidate.Name,
		RestaurantName: candidate.RestaurantName,
		UnitPrice:      candidate.UnitPrice,
		ImageRef:       candidate.ImageRef,
		Quantity:       1,
	}
	c.items = append(c.items, item)
	return item
}

// Remove deletes the line with id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// SetQuantity overwrites the quantity of a line; below 1 removes it.
func (c *Cart) SetQuantity(id string, quantity int) {
	if quantity < 1 {
		c.Remove(id)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Items returns a snapshot copy of the lines.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) TotalItemCount() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums unit price times quantity in minor units.
func (c *Cart) TotalPrice() (money.Amount, error) {
	total := money.Zero(enums.CurrencyPHP)
	if len(c.items) > 0 {
		total = money.Zero(c.items[0].UnitPrice.Currency)
	}
	for _, item := range c.items {
		var err error
		total, err = total.Add(item.UnitPrice.Mul(item.Quantity))
		if err != nil {
			return money.Amount{}, err
		}
	}
	return total, nil
}

func (c *Cart) valid() bool {
	seen := make(map[string]struct{}, len(c.items))
	for _, item := range c.items {
		if item.ID == "" || item.Quantity < 1 || !item.UnitPrice.Currency.IsValid() {
			return false
		}
		if _, dup := seen[item.ID]; dup {
			return false
		}
		seen[item.ID] = struct{}{}
	}
	return true
}
