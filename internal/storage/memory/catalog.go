// Package memory provides an in-process catalog for kiosks without a database.
package memory

import (
	"context"

	"github.com/xenking/kiosk-pos/internal/domain/menu"
)

var _ menu.Repository = (*Catalog)(nil)

// Catalog is a fixed, read-only list of menu items.
type Catalog struct {
	items []menu.Item
}

// NewCatalog returns a Catalog serving items in the given order.
func NewCatalog(items ...menu.Item) *Catalog {
	c := &Catalog{items: make([]menu.Item, len(items))}
	copy(c.items, items)
	return c
}

// DefaultCatalog returns the counter's standard menu.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultItems()...)
}

// DefaultItems returns the standard menu items.
func DefaultItems() []menu.Item {
	return []menu.Item{
		menu.MustItem("Coffee", "3.00", menu.CategoryDrink),
		menu.MustItem("Tea", "2.50", menu.CategoryDrink),
		menu.MustItem("Croissant", "4.25", menu.CategoryBakery),
		menu.MustItem("Salad", "9.50", menu.CategoryMeal),
		menu.MustItem("Club Sandwich", "9.50", menu.CategorySandwich),
		menu.MustItem("Cuban Sandwich", "10.50", menu.CategorySandwich),
		menu.MustItem("Pesto Focaccia Sandwich", "13.50", menu.CategorySandwich),
		menu.MustItem("Egg Sandwich", "6.50", menu.CategorySandwich),
	}
}

// All returns a copy of every item.
func (c *Catalog) All(_ context.Context) ([]menu.Item, error) {
	out := make([]menu.Item, len(c.items))
	copy(out, c.items)
	return out, nil
}

// ByCategory returns the items in category cat, in catalog order.
func (c *Catalog) ByCategory(_ context.Context, cat menu.Category) ([]menu.Item, error) {
	return menu.FilterByCategory(c.items, cat), nil
}
