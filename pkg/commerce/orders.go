package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// CreateOrder records an order for the current cart tagged with method. The backend
// clears the cart as part of this call.
func (c *Client) CreateOrder(ctx context.Context, method enums.PaymentMethod) (*types.Order, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "unsupported payment method").WithDetails(map[string]any{"payment_method": method})
	}
	var order types.Order
	if err := c.do(ctx, call{
		operation:     "create_order",
		method:        http.MethodPost,
		path:          "orders/create",
		query:         url.Values{"payment_method": []string{string(method)}},
		authenticated: true,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the caller's orders; admins receive every order.
func (c *Client) ListOrders(ctx context.Context) ([]types.Order, error) {
	var orders []types.Order
	if err := c.do(ctx, call{
		operation:     "list_orders",
		method:        http.MethodGet,
		path:          "orders",
		authenticated: true,
	}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "order id is required")
	}
	var order types.Order
	if err := c.do(ctx, call{
		operation:     "get_order",
		method:        http.MethodGet,
		path:          "orders/" + url.PathEscape(trimmed),
		authenticated: true,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
