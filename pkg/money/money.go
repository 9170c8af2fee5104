// Package money holds prices as integer minor units plus a currency code.
// Display strings are parsed once at ingestion and produced only for output.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const minorExponent = 2

var symbolCurrencies = []struct {
	symbol   string
	currency enums.Currency
}{
	{symbol: "₱", currency: enums.CurrencyPHP},
	{symbol: "PHP", currency: enums.CurrencyPHP},
	{symbol: "$", currency: enums.CurrencyUSD},
	{symbol: "USD", currency: enums.CurrencyUSD},
}

// Amount is a price in the smallest unit of its currency.
type Amount struct {
	Minor    int64
	Currency enums.Currency
}

// Zero returns an empty amount of the given currency.
func Zero(currency enums.Currency) Amount {
	return Amount{Currency: currency}
}

// Parse converts a display price such as "₱124.00" into an Amount.
func Parse(raw string) (Amount, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Amount{}, fmt.Errorf("money: empty price")
	}

	currency := enums.Currency("")
	for _, entry := range symbolCurrencies {
		if strings.HasPrefix(value, entry.symbol) {
			currency = entry.currency
			value = strings.TrimSpace(strings.TrimPrefix(value, entry.symbol))
			break
		}
	}
	if currency == "" {
		return Amount{}, fmt.Errorf("money: unknown currency in %q", raw)
	}

	value = strings.ReplaceAll(value, ",", "")
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parse %q: %w", raw, err)
	}
	if dec.IsNegative() {
		return Amount{}, fmt.Errorf("money: negative price %q", raw)
	}
	scaled := dec.Shift(minorExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, fmt.Errorf("money: %q has sub-minor precision", raw)
	}
	return Amount{Minor: scaled.IntPart(), Currency: currency}, nil
}

// MustParse is Parse for static catalog data.
func MustParse(raw string) Amount {
	amount, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return amount
}

// Add sums two amounts of the same currency. A zero amount without a
// currency adopts the other side's currency.
func (a Amount) Add(b Amount) (Amount, error) {
	switch {
	case a.Currency == "":
		a.Currency = b.Currency
	case b.Currency != "" && a.Currency != b.Currency:
		return Amount{}, fmt.Errorf("money: currency mismatch %s and %s", a.Currency, b.Currency)
	}
	return Amount{Minor: a.Minor + b.Minor, Currency: a.Currency}, nil
}

// Mul multiplies the amount by a quantity.
func (a Amount) Mul(quantity int) Amount {
	return Amount{Minor: a.Minor * int64(quantity), Currency: a.Currency}
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Minor, -minorExponent)
}

// Format renders the amount for display, e.g. "₱194.00".
func (a Amount) Format() string {
	return a.Currency.Symbol() + a.Decimal().StringFixed(minorExponent)
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return a.Format()
}

type amountJSON struct {
	AmountMinor int64          `json:"amount_minor"`
	Currency    enums.Currency `json:"currency"`
	Formatted   string         `json:"formatted,omitempty"`
}

// MarshalJSON emits the minor amount with its formatted form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{
		AmountMinor: a.Minor,
		Currency:    a.Currency,
		Formatted:   a.Format(),
	})
}

// UnmarshalJSON reads the minor amount and currency; the formatted field is ignored.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var payload amountJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.Currency != "" && !payload.Currency.IsValid() {
		return fmt.Errorf("money: invalid currency %q", payload.Currency)
	}
	a.Minor = payload.AmountMinor
	a.Currency = payload.Currency
	return nil
}
