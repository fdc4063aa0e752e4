package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSource string

const (
	OrderSourceStorefront OrderSource = "storefront"
	OrderSourceAdmin      OrderSource = "admin"
)

// OrderLineRequest is what callers submit; the hint is carried on the wire for
// display purposes and never used for pricing.
type OrderLineRequest struct {
	ProductID     string           `json:"productId" validate:"required"`
	Quantity      int              `json:"quantity" validate:"gte=1"`
	UnitPriceHint *decimal.Decimal `json:"unitPriceHint,omitempty"`
}

type OrderLine struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID              string      `json:"id"`
	CustomerName    string      `json:"customer_name"`
	Email           string      `json:"email,omitempty"`
	Phone           string      `json:"phone"`
	DeliveryAddress string      `json:"delivery_address"`
	Source          OrderSource `json:"source"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Lines           []OrderLine `json:"lines"`
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
