package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

// Order is the immutable snapshot of a cart taken at checkout.
type Order struct {
	ID           string
	CustomerName string
	CreatedAt    time.Time
	Lines        []cart.Line
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Summary returns the order amounts as a receipt summary.
func (o *Order) Summary() receipt.Summary {
	return receipt.Summary{Subtotal: o.Subtotal, Tax: o.Tax, Total: o.Total}
}

// ItemCount returns the total number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}
