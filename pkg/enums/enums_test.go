package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		parsed, err := ParseOrderStatus(string(status))
		if err != nil || parsed != status {
			t.Fatalf("round trip failed for %q: %v", status, err)
		}
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
	if OrderStatus("canceled").IsValid() {
		t.Fatalf("american spelling is not part of the backend contract")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if m, err := ParsePaymentMethod("card"); err != nil || m != PaymentMethodCard {
		t.Fatalf("expected card, got %q (%v)", m, err)
	}
	if _, err := ParsePaymentMethod("stripe"); err == nil {
		t.Fatalf("stripe is a provider, not a method")
	}
}

func TestPaymentStatusIsPaid(t *testing.T) {
	if !PaymentStatusPaid.IsPaid() {
		t.Fatalf("paid should be paid")
	}
	if PaymentStatusUnknown.IsPaid() || PaymentStatusUnpaid.IsPaid() {
		t.Fatalf("only paid is paid")
	}
}

func TestCheckoutStateTerminal(t *testing.T) {
	terminal := map[CheckoutState]bool{
		CheckoutStateLoading:               false,
		CheckoutStateReady:                 false,
		CheckoutStatePaymentMethodSelected: false,
		CheckoutStateSubmitting:            false,
		CheckoutStateFailed:                false,
		CheckoutStateRedirecting:           true,
		CheckoutStateEmptyCartRedirect:     true,
	}
	for state, want := range terminal {
		if state.IsTerminal() != want {
			t.Fatalf("state %s terminal=%v want %v", state, state.IsTerminal(), want)
		}
	}
}

func TestParseUserRole(t *testing.T) {
	if r, err := ParseUserRole("admin"); err != nil || r != UserRoleAdmin {
		t.Fatalf("expected admin, got %q (%v)", r, err)
	}
	if _, err := ParseUserRole("vendor"); err == nil {
		t.Fatalf("unknown role should fail")
	}
}

func TestPaymentMethodLabel(t *testing.T) {
	if got := PaymentMethodCard.Label(); got != "Credit/Debit Card" {
		t.Fatalf("unexpected card label %q", got)
	}
	if m, err := ParsePaymentMethod(" PayPal "); err != nil || m.Label() != "PayPal" {
		t.Fatalf("expected paypal, got %q (%v)", m, err)
	}
}
