package enums

// VerificationOutcome is the terminal result of polling a payment session.
type VerificationOutcome string

const (
	VerificationOutcomePaid          VerificationOutcome = "paid"
	VerificationOutcomeUnconfirmed   VerificationOutcome = "unconfirmed"
	VerificationOutcomePollExhausted VerificationOutcome = "poll_exhausted"
)

// String implements fmt.Stringer.
func (v VerificationOutcome) String() string {
	return string(v)
}
