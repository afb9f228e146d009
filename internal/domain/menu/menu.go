package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
)

// Category groups catalog items on the counter menu.
type Category string

const (
	CategoryDrink    Category = "drink"
	CategoryBakery   Category = "bakery"
	CategoryMeal     Category = "meal"
	CategorySandwich Category = "sandwich"
)

// Categories returns every known category in menu display order.
func Categories() []Category {
	return []Category{CategoryDrink, CategoryBakery, CategoryMeal, CategorySandwich}
}

// ParseCategory maps a case-insensitive category name to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", errs.Invalid("category", fmt.Sprintf("unknown category %q", s))
}

// Item is an immutable catalog entry. Use NewItem to construct one.
type Item struct {
	name     string
	price    decimal.Decimal
	category Category
}

// NewItem validates and returns a catalog item. The name must not be blank
// and the price must be strictly positive.
func NewItem(name string, price decimal.Decimal, category Category) (Item, error) {
	if strings.TrimSpace(name) == "" {
		return Item{}, errs.Invalid("name", "must not be blank")
	}
	if strings.ContainsAny(name, "\r\n") {
		return Item{}, errs.Invalid("name", "must be a single line")
	}
	if !price.IsPositive() {
		return Item{}, errs.Invalid("price", fmt.Sprintf("must be positive, got %s", price))
	}
	return Item{name: name, price: price, category: category}, nil
}

// MustItem is like NewItem but panics on invalid input. Intended for static
// seed data.
func MustItem(name, price string, category Category) Item {
	item, err := NewItem(name, decimal.RequireFromString(price), category)
	if err != nil {
		panic(err)
	}
	return item
}

func (i Item) Name() string { return i.name }

func (i Item) Price() decimal.Decimal { return i.price }

func (i Item) Category() Category { return i.category }

func (i Item) String() string { return i.name + " " + i.price.StringFixed(2) }

// IsZero reports whether i is the zero Item.
func (i Item) IsZero() bool { return i.name == "" }

// Equal compares items by value.
func (i Item) Equal(other Item) bool {
	return i.name == other.name &&
		i.category == other.category &&
		i.price.Equal(other.price)
}

// Repository supplies purchasable catalog items.
type Repository interface {
	All(ctx context.Context) ([]Item, error)
	ByCategory(ctx context.Context, c Category) ([]Item, error)
}

// FilterByCategory returns the subsequence of items in category c,
// preserving order.
func FilterByCategory(items []Item, c Category) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.category == c {
			out = append(out, item)
		}
	}
	return out
}
