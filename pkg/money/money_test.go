package money

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/foodorder-backend/pkg/enums"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw  string
		want Amount
	}{
		{raw: "₱124.00", want: Amount{Minor: 12400, Currency: enums.CurrencyPHP}},
		{raw: "₱35", want: Amount{Minor: 3500, Currency: enums.CurrencyPHP}},
		{raw: " ₱1,250.50 ", want: Amount{Minor: 125050, Currency: enums.CurrencyPHP}},
		{raw: "$4.99", want: Amount{Minor: 499, Currency: enums.CurrencyUSD}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %+v want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{"", "124.00", "₱abc", "₱1.005", "₱-3.00"} {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestTotalsInMinorUnits(t *testing.T) {
	total := Zero(enums.CurrencyPHP)
	lines := []struct {
		price string
		qty   int
	}{
		{price: "₱124.00", qty: 1},
		{price: "₱35.00", qty: 2},
	}
	for _, line := range lines {
		var err error
		total, err = total.Add(MustParse(line.price).Mul(line.qty))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if total.Minor != 19400 {
		t.Fatalf("expected 19400 minor units, got %d", total.Minor)
	}
	if total.Format() != "₱194.00" {
		t.Fatalf("unexpected formatted total %q", total.Format())
	}
}

func TestAddCurrencyMismatch(t *testing.T) {
	_, err := MustParse("₱1.00").Add(MustParse("$1.00"))
	if err == nil {
		t.Fatal("expected currency mismatch error")
	}
	got, err := Amount{}.Add(MustParse("$1.00"))
	if err != nil || got.Currency != enums.CurrencyUSD {
		t.Fatalf("zero amount should adopt currency, got %+v err=%v", got, err)
	}
}

func TestAmountJSON(t *testing.T) {
	raw, err := json.Marshal(MustParse("₱89.00"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"amount_minor":8900,"currency":"PHP","formatted":"₱89.00"}`
	if string(raw) != want {
		t.Fatalf("unexpected json %s", raw)
	}

	var decoded Amount
	if err := json.Unmarshal([]byte(`{"amount_minor":8900,"currency":"PHP","formatted":"₱1.00"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Minor != 8900 {
		t.Fatalf("formatted field must not drive the amount, got %d", decoded.Minor)
	}
	if err := json.Unmarshal([]byte(`{"amount_minor":1,"currency":"XYZ"}`), &decoded); err == nil {
		t.Fatal("expected invalid currency error")
	}
}
