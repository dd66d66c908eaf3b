package checkout

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// ErrMethodUnavailable is returned for a payment method that is shown but not wired to
// a provider.
var ErrMethodUnavailable = pkgerrors.New(pkgerrors.CodeValidationRejected, "payment method is not available yet")

// Request is what a payment method needs to start a handoff.
type Request struct {
	Amount    decimal.Decimal
	OriginURL string
}

// Handoff is a started payment. OrderErr is set when the order could not be recorded
// after the provider session was created; the redirect still proceeds.
type Handoff struct {
	SessionID   string
	RedirectURL string
	Order       *types.Order
	OrderErr    error
	Failures    []StepFailure
}

// Method is one payment option offered at checkout.
type Method interface {
	Name() enums.PaymentMethod
	Available() bool
	Initiate(ctx context.Context, req Request) (*Handoff, error)
}

type cardBackend interface {
	CreatePaymentSession(ctx context.Context, amount decimal.Decimal, originURL string) (*types.PaymentSession, error)
	CreateOrder(ctx context.Context, method enums.PaymentMethod) (*types.Order, error)
}

// CardMethod pays through the hosted card checkout. It opens the provider session
// first and records the order second.
type CardMethod struct {
	backend cardBackend
}

func NewCardMethod(backend cardBackend) (*CardMethod, error) {
	if backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	return &CardMethod{backend: backend}, nil
}

func (m *CardMethod) Name() enums.PaymentMethod {
	return enums.PaymentMethodCard
}

func (m *CardMethod) Available() bool {
	return true
}

func (m *CardMethod) Initiate(ctx context.Context, req Request) (*Handoff, error) {
	handoff := &Handoff{}
	result, err := runSteps(ctx,
		step{
			name:     StepCreatePaymentSession,
			critical: true,
			run: func(ctx context.Context) error {
				session, err := m.backend.CreatePaymentSession(ctx, req.Amount, req.OriginURL)
				if err != nil {
					return err
				}
				handoff.SessionID = session.SessionID
				handoff.RedirectURL = session.URL
				return nil
			},
		},
		step{
			name: StepRecordOrder,
			run: func(ctx context.Context) error {
				order, err := m.backend.CreateOrder(ctx, enums.PaymentMethodCard)
				if err != nil {
					return err
				}
				handoff.Order = order
				return nil
			},
		},
	)
	if err != nil {
		return nil, err
	}
	handoff.OrderErr = result.deferred
	handoff.Failures = result.failures
	return handoff, nil
}

// PayPalMethod is displayed at checkout but has no provider configured.
type PayPalMethod struct{}

func (PayPalMethod) Name() enums.PaymentMethod {
	return enums.PaymentMethodPayPal
}

func (PayPalMethod) Available() bool {
	return false
}

func (PayPalMethod) Initiate(context.Context, Request) (*Handoff, error) {
	return nil, ErrMethodUnavailable
}
