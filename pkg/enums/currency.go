package enums

import "fmt"

// Currency represents the denomination of a menu price or cart total.
type Currency string

const (
	CurrencyPHP Currency = "PHP"
	CurrencyUSD Currency = "USD"
)

var validCurrencies = []Currency{
	CurrencyPHP,
	CurrencyUSD,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// Symbol returns the display prefix used when formatting amounts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyPHP:
		return "₱"
	case CurrencyUSD:
		return "$"
	default:
		return string(c) + " "
	}
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
