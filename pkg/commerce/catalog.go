package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ListProducts returns the catalog, optionally narrowed by category and search text.
func (c *Client) ListProducts(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	query := url.Values{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query.Set("category", category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query.Set("search", search)
	}
	var products []types.Product
	if err := c.do(ctx, call{
		operation: "list_products",
		method:    http.MethodGet,
		path:      "products",
		query:     query,
	}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a single product or a NotFound error.
func (c *Client) GetProduct(ctx context.Context, productID string) (*types.Product, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidationRejected, "product id is required")
	}
	var product types.Product
	if err := c.do(ctx, call{
		operation: "get_product",
		method:    http.MethodGet,
		path:      "products/" + url.PathEscape(trimmed),
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
