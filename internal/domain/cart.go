package domain

import "github.com/shopspring/decimal"

// CartItem is one product line held in a visitor's cart. UnitPrice is the
// price seen when the product was first added and is display-only.
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	PhotoRef  string          `json:"photo,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartSnapshot struct {
	Items          []CartItem      `json:"items"`
	TotalItemCount int             `json:"total_items"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}
