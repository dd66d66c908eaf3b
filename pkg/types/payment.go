package types

import "github.com/angelmondragon/storefront/pkg/enums"

// PaymentSession is the provider handle returned when checkout starts. It lives only
// for the current checkout attempt.
type PaymentSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentStatusReport is one answer from the settlement status endpoint.
type PaymentStatusReport struct {
	SessionStatus string              `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	AmountTotal   int64               `json:"amount_total"`
	Currency      string              `json:"currency"`
}
