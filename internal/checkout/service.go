package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	internalauth "github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// ProductListingPath is where an empty checkout sends the shopper.
const ProductListingPath = "/products"

// Service drives one checkout attempt from cart load to provider handoff.
type Service interface {
	Load(ctx context.Context) (enums.CheckoutState, error)
	SelectMethod(ctx context.Context, method enums.PaymentMethod) error
	Submit(ctx context.Context, originURL string) (*Result, error)
	State() enums.CheckoutState
	Cart() (types.Cart, bool)
	Selected() enums.PaymentMethod
}

// Navigator moves the shopper to another page or to the provider.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

type cartReader interface {
	Get(ctx context.Context) (*types.Cart, error)
}

// Result describes a submission that reached the provider handoff.
type Result struct {
	State       enums.CheckoutState
	Method      enums.PaymentMethod
	Amount      decimal.Decimal
	SessionID   string
	RedirectURL string
	Order       *types.Order
	// OrderErr is set when the order record failed after the session was created.
	OrderErr error
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Cart             cartReader
	Identity         internalauth.Identity
	Navigator        Navigator
	Methods          []Method
	DefaultOriginURL string
	Metrics          *metrics.StorefrontMetrics
	Logger           *logger.Logger
}

type service struct {
	cart          cartReader
	identity      internalauth.Identity
	navigator     Navigator
	methods       map[enums.PaymentMethod]Method
	defaultOrigin string
	metrics       *metrics.StorefrontMetrics
	logg          *logger.Logger

	mu       sync.Mutex
	state    enums.CheckoutState
	snapshot *types.Cart
	selected enums.PaymentMethod
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity is required")
	}
	if params.Navigator == nil {
		return nil, fmt.Errorf("navigator is required")
	}
	if len(params.Methods) == 0 {
		return nil, fmt.Errorf("at least one payment method is required")
	}
	methods := make(map[enums.PaymentMethod]Method, len(params.Methods))
	for _, m := range params.Methods {
		if m == nil || !m.Name().IsValid() {
			return nil, fmt.Errorf("invalid payment method")
		}
		methods[m.Name()] = m
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		cart:          params.Cart,
		identity:      params.Identity,
		navigator:     params.Navigator,
		methods:       methods,
		defaultOrigin: strings.TrimRight(strings.TrimSpace(params.DefaultOriginURL), "/"),
		metrics:       params.Metrics,
		logg:          logg,
		state:         enums.CheckoutStateLoading,
	}, nil
}

// Load fetches the authoritative cart. An empty cart ends the checkout and sends the
// shopper to the listing; a failed fetch leaves the machine in loading.
func (s *service) Load(ctx context.Context) (enums.CheckoutState, error) {
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return s.State(), err
	}
	s.mu.Lock()
	if s.state == enums.CheckoutStateSubmitting {
		s.mu.Unlock()
		return enums.CheckoutStateSubmitting, pkgerrors.New(pkgerrors.CodeValidationRejected, "checkout submission in progress")
	}
	s.transitionLocked(ctx, enums.CheckoutStateLoading)
	s.mu.Unlock()

	cart, err := s.cart.Get(ctx)
	if err != nil {
		s.logg.WarnErr(ctx, "checkout cart load failed", err)
		return enums.CheckoutStateLoading, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := cart.Clone()
	s.snapshot = &fresh
	if fresh.IsEmpty() {
		s.transitionLocked(ctx, enums.CheckoutStateEmptyCartRedirect)
		s.navigator.Navigate(ctx, ProductListingPath)
		return s.state, nil
	}
	s.transitionLocked(ctx, enums.CheckoutStateReady)
	return s.state, nil
}

// SelectMethod records the shopper's payment choice. It makes no network call.
func (s *service) SelectMethod(ctx context.Context, method enums.PaymentMethod) error {
	if _, ok := s.methods[method]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "unsupported payment method").WithDetails(map[string]any{"payment_method": method})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case enums.CheckoutStateReady, enums.CheckoutStatePaymentMethodSelected, enums.CheckoutStateFailed:
	default:
		return pkgerrors.New(pkgerrors.CodeValidationRejected, fmt.Sprintf("cannot select a payment method while %s", s.state))
	}
	s.selected = method
	s.transitionLocked(ctx, enums.CheckoutStatePaymentMethodSelected)
	return nil
}

// Submit hands the shopper to the provider for the selected method. The amount is the
// total from the last authoritative cart fetch. A failed session creation returns the
// machine to ready with the selection kept, so the shopper can retry.
func (s *service) Submit(ctx context.Context, originURL string) (*Result, error) {
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return nil, err
	}
	origin := strings.TrimRight(strings.TrimSpace(originURL), "/")
	if origin == "" {
		origin = s.defaultOrigin
	}

	s.mu.Lock()
	method, err := s.submittableLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.snapshot == nil || s.snapshot.IsEmpty() {
		s.transitionLocked(ctx, enums.CheckoutStateEmptyCartRedirect)
		s.mu.Unlock()
		s.navigator.Navigate(ctx, ProductListingPath)
		return &Result{State: enums.CheckoutStateEmptyCartRedirect, Method: method.Name()}, nil
	}
	if !method.Available() {
		s.mu.Unlock()
		s.metrics.IncCheckoutSubmission(string(method.Name()), "unavailable")
		return nil, ErrMethodUnavailable
	}
	amount := s.snapshot.Total
	s.transitionLocked(ctx, enums.CheckoutStateSubmitting)
	s.mu.Unlock()

	ctx = s.logg.WithFields(ctx, map[string]any{"payment_method": method.Name(), "amount": amount.StringFixed(2)})
	handoff, err := method.Initiate(ctx, Request{Amount: amount, OriginURL: origin})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.transitionLocked(ctx, enums.CheckoutStateFailed)
		s.logg.WarnErr(ctx, "payment session creation failed", err)
		s.metrics.IncCheckoutSubmission(string(method.Name()), "session_failed")
		s.transitionLocked(ctx, enums.CheckoutStateReady)
		return nil, err
	}

	result := &Result{
		State:       enums.CheckoutStateRedirecting,
		Method:      method.Name(),
		Amount:      amount,
		SessionID:   handoff.SessionID,
		RedirectURL: handoff.RedirectURL,
		Order:       handoff.Order,
		OrderErr:    handoff.OrderErr,
	}
	ctx = s.logg.WithSessionID(ctx, handoff.SessionID)
	if handoff.OrderErr != nil {
		s.logg.WarnErr(ctx, "order bookkeeping failed after payment session creation; continuing to provider", handoff.OrderErr)
		s.metrics.IncBookkeepingFailure()
	} else if handoff.Order != nil {
		ctx = s.logg.WithOrderID(ctx, handoff.Order.ID)
	}
	s.transitionLocked(ctx, enums.CheckoutStateRedirecting)
	s.metrics.IncCheckoutSubmission(string(method.Name()), "redirected")
	s.navigator.Navigate(ctx, handoff.RedirectURL)
	return result, nil
}

// submittableLocked returns the selected method when a submission may start.
func (s *service) submittableLocked() (Method, error) {
	switch s.state {
	case enums.CheckoutStatePaymentMethodSelected:
	case enums.CheckoutStateReady:
		if s.selected == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "select a payment method first")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, fmt.Sprintf("cannot submit checkout while %s", s.state))
	}
	method, ok := s.methods[s.selected]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "unsupported payment method")
	}
	return method, nil
}

func (s *service) transitionLocked(ctx context.Context, next enums.CheckoutState) {
	prev := s.state
	s.state = next
	if prev == next {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"checkout_state": next, "previous_state": prev})
	s.logg.Info(ctx, "checkout state changed")
}

func (s *service) State() enums.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cart returns the cart the checkout was loaded with.
func (s *service) Cart() (types.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return types.Cart{}, false
	}
	return s.snapshot.Clone(), true
}

func (s *service) Selected() enums.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}
