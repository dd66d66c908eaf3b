package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	internalauth "github.com/angelmondragon/storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// Service mediates cart mutations against the server-owned cart and keeps a local
// mirror of the last authoritative fetch.
type Service interface {
	Add(ctx context.Context, productID string, quantity int, price decimal.Decimal) (*types.Cart, error)
	Update(ctx context.Context, productID string, quantity int, price decimal.Decimal) (bool, error)
	Remove(ctx context.Context, productID string) error
	Get(ctx context.Context) (*types.Cart, error)
	Snapshot() (types.Cart, bool)
}

type backend interface {
	AddToCart(ctx context.Context, item types.CartItem) error
	UpdateCartItem(ctx context.Context, item types.CartItem) error
	RemoveFromCart(ctx context.Context, productID string) error
	GetCart(ctx context.Context) (*types.Cart, error)
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Backend  backend
	Identity internalauth.Identity
	Logger   *logger.Logger
}

type service struct {
	backend  backend
	identity internalauth.Identity
	logg     *logger.Logger

	mu     sync.RWMutex
	mirror *types.Cart
}

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		backend:  params.Backend,
		identity: params.Identity,
		logg:     logg,
	}, nil
}

// Add merges quantity units of productID into the cart at the given price snapshot,
// then refetches the authoritative cart.
func (s *service) Add(ctx context.Context, productID string, quantity int, price decimal.Decimal) (*types.Cart, error) {
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return nil, err
	}
	item, err := newItem(productID, quantity, price)
	if err != nil {
		return nil, err
	}
	if err := s.backend.AddToCart(ctx, item); err != nil {
		s.logg.WarnErr(ctx, "add to cart failed", err)
		return nil, err
	}
	return s.Get(ctx)
}

// Update sets the quantity of an existing line. A quantity below one is ignored
// without a request and reported as false.
func (s *service) Update(ctx context.Context, productID string, quantity int, price decimal.Decimal) (bool, error) {
	if quantity < 1 {
		return false, nil
	}
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return false, err
	}
	item, err := newItem(productID, quantity, price)
	if err != nil {
		return false, err
	}
	if err := s.backend.UpdateCartItem(ctx, item); err != nil {
		s.logg.WarnErr(ctx, "update cart item failed", err)
		return false, err
	}
	if _, err := s.Get(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes productID from the cart. Removing an absent item succeeds.
func (s *service) Remove(ctx context.Context, productID string) error {
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	if err := s.backend.RemoveFromCart(ctx, productID); err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			s.logg.WarnErr(ctx, "remove from cart failed", err)
			return err
		}
		s.logg.Debug(s.logg.WithField(ctx, "product_id", productID), "item already absent from cart")
	}
	_, err := s.Get(ctx)
	return err
}

// Get fetches the authoritative cart and replaces the mirror. On failure the mirror is
// left as it was.
func (s *service) Get(ctx context.Context) (*types.Cart, error) {
	if _, err := internalauth.RequireUser(s.identity); err != nil {
		return nil, err
	}
	cart, err := s.backend.GetCart(ctx)
	if err != nil {
		s.logg.WarnErr(ctx, "cart fetch failed", err)
		return nil, err
	}
	fresh := cart.Clone()
	s.mu.Lock()
	s.mirror = &fresh
	s.mu.Unlock()

	out := fresh.Clone()
	return &out, nil
}

// Snapshot returns the last authoritative cart, if one was fetched.
func (s *service) Snapshot() (types.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mirror == nil {
		return types.Cart{}, false
	}
	return s.mirror.Clone(), true
}

func newItem(productID string, quantity int, price decimal.Decimal) (types.CartItem, error) {
	productID = strings.TrimSpace(productID)
	details := map[string]string{}
	if productID == "" {
		details["product_id"] = "is required"
	}
	if quantity < 1 {
		details["quantity"] = "must be at least 1"
	}
	if price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return types.CartItem{}, pkgerrors.New(pkgerrors.CodeValidationRejected, "invalid cart item").WithDetails(details)
	}
	return types.CartItem{ProductID: productID, Quantity: quantity, Price: price}, nil
}
