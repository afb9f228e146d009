package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/domain/tax"
)

// InvalidQuantityError indicates an attempt to add fewer than one unit.
type InvalidQuantityError struct {
	Name     string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for %s, got %d", e.Name, e.Quantity)
}

// Is reports whether target is errs.ErrInvalidInput.
func (e *InvalidQuantityError) Is(target error) bool {
	return target == errs.ErrInvalidInput
}

// Line is one item and the number of units ordered. Quantity is always >= 1.
type Line struct {
	Item     menu.Item
	Quantity int
}

// Extension returns price * quantity.
func (l Line) Extension() decimal.Decimal {
	return l.Item.Price().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart accumulates ordered quantities keyed by item name, in the order each
// name was first added. The zero value is an empty cart ready to use.
//
// Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
	index map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add adds quantity units of item. If a line with the same name exists its
// quantity is increased; price and category of the existing line are kept.
func (c *Cart) Add(item menu.Item, quantity int) error {
	if quantity < 1 {
		return &InvalidQuantityError{Name: item.Name(), Quantity: quantity}
	}
	if item.IsZero() {
		return errs.Invalid("item", "must not be empty")
	}
	if i, ok := c.index[item.Name()]; ok {
		c.lines[i].Quantity += quantity
		return nil
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[item.Name()] = len(c.lines)
	c.lines = append(c.lines, Line{Item: item, Quantity: quantity})
	return nil
}

// Remove drops the line for name. Removing an absent name is a no-op.
func (c *Cart) Remove(name string) {
	i, ok := c.index[name]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Item.Name()] = j
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = nil
}

// Subtotal returns the exact sum of price * quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Extension())
	}
	return sum
}

// Tax returns calc's tax on the current subtotal.
func (c *Cart) Tax(calc tax.Calculator) decimal.Decimal {
	return calc.Tax(c.Subtotal())
}

// Total returns subtotal plus tax.
func (c *Cart) Total(calc tax.Calculator) decimal.Decimal {
	return c.Subtotal().Add(c.Tax(calc))
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the units ordered for name, or 0 if absent.
func (c *Cart) Quantity(name string) int {
	if i, ok := c.index[name]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }
