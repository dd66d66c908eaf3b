package stripe

import (
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront/pkg/enums"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

// PaymentStatus folds a hosted checkout session's payment_status into the client's
// vocabulary. Anything other than paid or unpaid, including no_payment_required, is
// unknown.
func PaymentStatus(raw string) enums.PaymentStatus {
	switch stripe.CheckoutSessionPaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case stripe.CheckoutSessionPaymentStatusPaid:
		return enums.PaymentStatusPaid
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		return enums.PaymentStatusUnpaid
	default:
		return enums.PaymentStatusUnknown
	}
}

// SessionOpen reports whether the session can still be paid.
func SessionOpen(status string) bool {
	return stripe.CheckoutSessionStatus(strings.TrimSpace(status)) == stripe.CheckoutSessionStatusOpen
}

// Environment reports whether a checkout session id belongs to test or live mode, or
// "" when the id does not follow the provider's format.
func Environment(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	switch {
	case strings.HasPrefix(id, "cs_test_"):
		return testEnv
	case strings.HasPrefix(id, "cs_live_"):
		return liveEnv
	default:
		return ""
	}
}
