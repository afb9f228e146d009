// Package receipt renders carts into receipt text and defines where
// rendered receipts are persisted.
//
// A rendered receipt always ends with three trailer lines, in order:
// subtotal, tax and total. The structured Summary carries the same values so
// persistence never has to parse them back out of the text; ParseTrailer
// exists only for receipts that survive as text alone.
package receipt

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a stored receipt does not exist.
var ErrNotFound = errors.New("receipt not found")

// Summary holds the monetary trailer of a receipt, rounded to cents.
// Total is always Subtotal + Tax.
type Summary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Equal compares summaries by value.
func (s Summary) Equal(other Summary) bool {
	return s.Subtotal.Equal(other.Subtotal) &&
		s.Tax.Equal(other.Tax) &&
		s.Total.Equal(other.Total)
}

// LineItem is the structured form of one rendered cart line.
type LineItem struct {
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Receipt is the output of Service.Render.
type Receipt struct {
	Lines   []string
	Items   []LineItem
	Summary Summary
}

// Record is a receipt prepared for the record store.
type Record struct {
	OrderID      string
	CustomerName string
	Lines        []string
	Items        []LineItem
	Summary      Summary
}

// Stored is a Record read back from the record store.
type Stored struct {
	Record
	ID        int64
	CreatedAt time.Time
}

// Archive persists rendered receipt text and returns the artifact location.
type Archive interface {
	Save(ctx context.Context, lines []string) (string, error)
}

// Store persists receipts as structured records and returns the assigned
// identifier, a positive and increasing integer.
type Store interface {
	Save(ctx context.Context, rec Record) (int64, error)
}
