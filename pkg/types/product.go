package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"nonnegative_decimal"`
	Category    string          `json:"category" validate:"required"`
	Image       string          `json:"image" validate:"required,url"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// InputFrom copies the editable fields of an existing product.
func InputFrom(p Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.Image,
		Stock:       p.Stock,
	}
}

// ProductFilter narrows a catalog listing. Matching and ranking are server side.
type ProductFilter struct {
	Category string
	Search   string
}

// IsZero reports whether no filter was requested.
func (f ProductFilter) IsZero() bool {
	return f.Category == "" && f.Search == ""
}
