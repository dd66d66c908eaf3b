package types

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id,omitempty"`
	UserEmail     string              `json:"user_email"`
	Items         []CartItem          `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentID     *string             `json:"payment_id,omitempty"`
	CreatedAt     *time.Time          `json:"created_at,omitempty"`
}

// AdminStats is computed server side and only displayed.
type AdminStats struct {
	TotalProducts int             `json:"total_products"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}
