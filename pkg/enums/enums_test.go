package enums

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	for _, raw := range []string{"cod", "gcash", "maya", "card"} {
		got, err := ParsePaymentMethod(raw)
		if err != nil {
			t.Fatalf("ParsePaymentMethod(%q) error: %v", raw, err)
		}
		if got.String() != raw {
			t.Fatalf("expected %q got %q", raw, got)
		}
	}
	if _, err := ParsePaymentMethod("paypal"); err == nil {
		t.Fatal("expected error for unknown method")
	}
	if !PaymentMethodMaya.IsEWallet() || PaymentMethodCard.IsEWallet() {
		t.Fatal("unexpected e-wallet classification")
	}
}

func TestOrderStatusUnknownIsCarried(t *testing.T) {
	status := OrderStatus("cancelled")
	if status.IsValid() {
		t.Fatal("cancelled should not be a known status")
	}
	if status.String() != "cancelled" {
		t.Fatalf("expected raw value preserved, got %q", status)
	}
}

func TestCurrencySymbol(t *testing.T) {
	if CurrencyPHP.Symbol() != "₱" {
		t.Fatalf("unexpected PHP symbol %q", CurrencyPHP.Symbol())
	}
	if Currency("EUR").Symbol() != "EUR " {
		t.Fatalf("unexpected fallback symbol %q", Currency("EUR").Symbol())
	}
}
