package enums

// CheckoutState is a node of the checkout state machine.
type CheckoutState string

const (
	CheckoutStateLoading               CheckoutState = "loading"
	CheckoutStateReady                 CheckoutState = "ready"
	CheckoutStatePaymentMethodSelected CheckoutState = "payment_method_selected"
	CheckoutStateSubmitting            CheckoutState = "submitting"
	CheckoutStateRedirecting           CheckoutState = "redirecting"
	CheckoutStateFailed                CheckoutState = "failed"
	CheckoutStateEmptyCartRedirect     CheckoutState = "empty_cart_redirect"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsTerminal reports whether the machine has handed control elsewhere.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateRedirecting || s == CheckoutStateEmptyCartRedirect
}
