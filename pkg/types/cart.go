package types

import "github.com/shopspring/decimal"

// CartItem is one line of the server-owned cart. Price is the snapshot taken when the
// item was added, not a live catalog price.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// LineTotal is price x quantity, for display only.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart mirrors GET /cart. Total is computed by the backend and is authoritative.
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the line for productID, if present.
func (c Cart) Find(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ItemCount sums quantities across lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// EstimatedTotal recomputes the total from price snapshots. It is an optimistic display
// value and must never be charged; use Total.
func (c Cart) EstimatedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Clone returns a deep copy so callers cannot mutate a held mirror.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}
