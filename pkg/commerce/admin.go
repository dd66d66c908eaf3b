package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

type productBody struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	Stock       int         `json:"stock"`
}

func newProductBody(input types.ProductInput) productBody {
	return productBody{
		Name:        input.Name,
		Description: input.Description,
		Price:       json.Number(input.Price.String()),
		Category:    input.Category,
		Image:       input.Image,
		Stock:       input.Stock,
	}
}

func (c *Client) AdminStats(ctx context.Context) (*types.AdminStats, error) {
	var stats types.AdminStats
	if err := c.do(ctx, call{
		operation:     "admin_stats",
		method:        http.MethodGet,
		path:          "admin/stats",
		authenticated: true,
	}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) CreateProduct(ctx context.Context, input types.ProductInput) (*types.Product, error) {
	var product types.Product
	if err := c.do(ctx, call{
		operation:     "create_product",
		method:        http.MethodPost,
		path:          "products",
		body:          newProductBody(input),
		authenticated: true,
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID string, input types.ProductInput) (*types.Product, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	var product types.Product
	if err := c.do(ctx, call{
		operation:     "update_product",
		method:        http.MethodPut,
		path:          "products/" + url.PathEscape(trimmed),
		body:          newProductBody(input),
		authenticated: true,
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	return c.do(ctx, call{
		operation:     "delete_product",
		method:        http.MethodDelete,
		path:          "products/" + url.PathEscape(trimmed),
		authenticated: true,
	}, nil)
}

// UpdateOrderStatus moves an order to status. The transition graph is enforced by the
// backend, not here.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "order id is required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidationRejected, "invalid order status").WithDetails(map[string]any{"status": status})
	}
	return c.do(ctx, call{
		operation:     "update_order_status",
		method:        http.MethodPut,
		path:          "admin/orders/" + url.PathEscape(trimmed) + "/status",
		query:         url.Values{"status": []string{string(status)}},
		authenticated: true,
	}, nil)
}
