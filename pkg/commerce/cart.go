package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type cartItemBody struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
}

func newCartItemBody(item types.CartItem) cartItemBody {
	return cartItemBody{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     json.Number(item.Price.String()),
	}
}

// AddToCart adds item to the server-owned cart.
func (c *Client) AddToCart(ctx context.Context, item types.CartItem) error {
	return c.do(ctx, call{
		operation:     "add_to_cart",
		method:        http.MethodPost,
		path:          "cart/add",
		body:          newCartItemBody(item),
		authenticated: true,
	}, nil)
}

// UpdateCartItem replaces the quantity of an existing line.
func (c *Client) UpdateCartItem(ctx context.Context, item types.CartItem) error {
	return c.do(ctx, call{
		operation:     "update_cart_item",
		method:        http.MethodPut,
		path:          "cart/update",
		body:          newCartItemBody(item),
		authenticated: true,
	}, nil)
}

// RemoveFromCart deletes the line for productID.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) error {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	return c.do(ctx, call{
		operation:     "remove_from_cart",
		method:        http.MethodDelete,
		path:          "cart/remove/" + url.PathEscape(trimmed),
		authenticated: true,
	}, nil)
}

// GetCart returns the authoritative cart. A missing items list decodes as empty.
func (c *Client) GetCart(ctx context.Context) (*types.Cart, error) {
	var cart types.Cart
	if err := c.do(ctx, call{
		operation:     "get_cart",
		method:        http.MethodGet,
		path:          "cart",
		authenticated: true,
	}, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []types.CartItem{}
	}
	return &cart, nil
}
