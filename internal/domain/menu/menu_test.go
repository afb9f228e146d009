package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
)

func TestNewItem(t *testing.T) {
	tests := []struct {
		name    string
		item    string
		price   decimal.Decimal
		wantErr bool
	}{
		{name: "valid", item: "Coffee", price: decimal.RequireFromString("3.00")},
		{name: "blank name", item: "   ", price: decimal.RequireFromString("3.00"), wantErr: true},
		{name: "empty name", item: "", price: decimal.RequireFromString("3.00"), wantErr: true},
		{name: "zero price", item: "Water", price: decimal.Zero, wantErr: true},
		{name: "negative price", item: "Refund", price: decimal.RequireFromString("-1.00"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(tt.item, tt.price, CategoryDrink)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidInput)
				assert.True(t, item.IsZero())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.item, item.Name())
			assert.True(t, tt.price.Equal(item.Price()))
			assert.Equal(t, CategoryDrink, item.Category())
		})
	}
}

func TestItem_Equal(t *testing.T) {
	a := MustItem("Tea", "2.50", CategoryDrink)
	b, err := NewItem("Tea", decimal.RequireFromString("2.5"), CategoryDrink)
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "equal by value regardless of decimal scale")
	assert.False(t, a.Equal(MustItem("Tea", "2.50", CategoryBakery)))
	assert.False(t, a.Equal(MustItem("Tea", "2.75", CategoryDrink)))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Sandwich ")
	require.NoError(t, err)
	assert.Equal(t, CategorySandwich, c)

	_, err = ParseCategory("dessert")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestFilterByCategory(t *testing.T) {
	items := []Item{
		MustItem("Coffee", "3.00", CategoryDrink),
		MustItem("Croissant", "4.25", CategoryBakery),
		MustItem("Tea", "2.50", CategoryDrink),
	}

	drinks := FilterByCategory(items, CategoryDrink)
	require.Len(t, drinks, 2)
	assert.Equal(t, "Coffee", drinks[0].Name())
	assert.Equal(t, "Tea", drinks[1].Name())

	assert.Empty(t, FilterByCategory(items, CategoryMeal))
}
