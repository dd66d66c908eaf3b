package stripe

import (
	"testing"

	"github.com/angelmondragon/storefront/pkg/enums"
)

func TestPaymentStatus(t *testing.T) {
	cases := map[string]enums.PaymentStatus{
		"paid":                enums.PaymentStatusPaid,
		" PAID ":              enums.PaymentStatusPaid,
		"unpaid":              enums.PaymentStatusUnpaid,
		"no_payment_required": enums.PaymentStatusUnknown,
		"":                    enums.PaymentStatusUnknown,
	}
	for raw, want := range cases {
		if got := PaymentStatus(raw); got != want {
			t.Fatalf("PaymentStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestSessionOpen(t *testing.T) {
	if !SessionOpen("open") {
		t.Fatalf("expected open session")
	}
	if SessionOpen("complete") || SessionOpen("expired") {
		t.Fatalf("expected closed session")
	}
}

func TestEnvironment(t *testing.T) {
	if got := Environment("cs_test_a1b2"); got != testEnv {
		t.Fatalf("expected test env, got %q", got)
	}
	if got := Environment("cs_live_a1b2"); got != liveEnv {
		t.Fatalf("expected live env, got %q", got)
	}
	if got := Environment("sess-42"); got != "" {
		t.Fatalf("expected unknown env, got %q", got)
	}
}
