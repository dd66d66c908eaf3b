package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	providerstripe "github.com/angelmondragon/storefront/pkg/stripe"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// CreatePaymentSession asks the backend to open a hosted payment session for amount.
// originURL is where the provider sends the shopper back.
func (c *Client) CreatePaymentSession(ctx context.Context, amount decimal.Decimal, originURL string) (*types.PaymentSession, error) {
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "amount must not be negative")
	}
	origin := strings.TrimRight(strings.TrimSpace(originURL), "/")
	if origin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "origin url is required")
	}
	query := url.Values{}
	query.Set("amount", amount.StringFixed(2))
	query.Set("origin_url", origin)

	var session types.PaymentSession
	if err := c.do(ctx, call{
		operation:     "create_payment_session",
		method:        http.MethodPost,
		path:          "payments/stripe/create-session",
		query:         query,
		authenticated: true,
	}, &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeTransport, "payment session response is missing a redirect url")
	}
	return &session, nil
}

type paymentStatusBody struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// GetPaymentStatus queries the settlement state of a provider session. It never
// mutates anything on the backend.
func (c *Client) GetPaymentStatus(ctx context.Context, sessionID string) (*types.PaymentStatusReport, error) {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "session id is required")
	}
	var body paymentStatusBody
	if err := c.do(ctx, call{
		operation:     "get_payment_status",
		method:        http.MethodGet,
		path:          "payments/stripe/status/" + url.PathEscape(trimmed),
		authenticated: true,
	}, &body); err != nil {
		return nil, err
	}
	return &types.PaymentStatusReport{
		SessionStatus: body.Status,
		PaymentStatus: providerstripe.PaymentStatus(body.PaymentStatus),
		AmountTotal:   body.AmountTotal,
		Currency:      body.Currency,
	}, nil
}
