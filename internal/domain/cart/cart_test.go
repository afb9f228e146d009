package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/domain/tax"
)

var (
	coffee    = menu.MustItem("Coffee", "3.00", menu.CategoryDrink)
	tea       = menu.MustItem("Tea", "2.50", menu.CategoryDrink)
	croissant = menu.MustItem("Croissant", "4.25", menu.CategoryBakery)
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func names(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Item.Name()
	}
	return out
}

func sixPercent(t *testing.T) *tax.FlatRate {
	t.Helper()
	calc, err := tax.NewFlatRate(d("0.06"))
	require.NoError(t, err)
	return calc
}

func TestCart_AddAndSubtotal(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))

	assert.True(t, d("6.00").Equal(c.Subtotal()), "got %s", c.Subtotal())
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.IsEmpty())
}

func TestCart_AddMergesByName(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 1))
	require.NoError(t, c.Add(tea, 1))
	require.NoError(t, c.Add(coffee, 3))

	assert.Equal(t, []string{"Coffee", "Tea"}, names(c.Items()))
	assert.Equal(t, 4, c.Quantity("Coffee"))
	assert.True(t, d("14.50").Equal(c.Subtotal()))
}

func TestCart_AddKeepsFirstSeenItemOnMerge(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 1))
	repriced := menu.MustItem("Coffee", "9.99", menu.CategoryMeal)
	require.NoError(t, c.Add(repriced, 1))

	items := c.Items()
	require.Len(t, items, 1)
	assert.True(t, coffee.Equal(items[0].Item))
	assert.True(t, d("6.00").Equal(c.Subtotal()))
}

func TestCart_AddInvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		c := New()
		require.NoError(t, c.Add(tea, 2))

		err := c.Add(coffee, qty)
		require.ErrorIs(t, err, errs.ErrInvalidInput)

		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, "Coffee", iqErr.Name)
		assert.Equal(t, qty, iqErr.Quantity)

		assert.Equal(t, []string{"Tea"}, names(c.Items()))
		assert.Equal(t, 2, c.Quantity("Tea"))
		assert.True(t, d("5.00").Equal(c.Subtotal()))
	}
}

func TestCart_AddZeroItem(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Add(menu.Item{}, 1), errs.ErrInvalidInput)
	assert.True(t, c.IsEmpty())
}

func TestCart_Remove(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 1))
	require.NoError(t, c.Add(tea, 1))
	require.NoError(t, c.Add(croissant, 1))

	c.Remove("Tea")
	assert.Equal(t, []string{"Coffee", "Croissant"}, names(c.Items()))
	assert.Equal(t, 0, c.Quantity("Tea"))

	// Index must follow the shifted lines.
	require.NoError(t, c.Add(croissant, 2))
	assert.Equal(t, 3, c.Quantity("Croissant"))
	assert.True(t, d("15.75").Equal(c.Subtotal()))
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))
	require.NoError(t, c.Add(tea, 1))
	before := c.Items()

	c.Remove("Espresso")

	assert.Equal(t, before, c.Items())
	assert.Equal(t, []string{"Coffee", "Tea"}, names(c.Items()))
}

func TestCart_Clear(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))
	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))

	require.NoError(t, c.Add(tea, 1))
	assert.Equal(t, []string{"Tea"}, names(c.Items()))
}

func TestCart_ZeroValue(t *testing.T) {
	var c Cart
	assert.True(t, c.IsEmpty())
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))
	c.Remove("Coffee")
	require.NoError(t, c.Add(coffee, 1))
	assert.Equal(t, 1, c.Len())
}

func TestCart_ItemsIsACopy(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))

	items := c.Items()
	items[0].Quantity = 100
	items = append(items, Line{Item: tea, Quantity: 1})

	assert.Equal(t, 2, c.Quantity("Coffee"))
	assert.Equal(t, 1, c.Len())
	assert.Len(t, items, 2)
}

func TestCart_TaxAndTotal(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))
	calc := sixPercent(t)

	assert.True(t, d("0.36").Equal(c.Tax(calc)), "got %s", c.Tax(calc))
	assert.True(t, d("6.36").Equal(c.Total(calc)), "got %s", c.Total(calc))
}

func TestCart_SubtotalIsExact(t *testing.T) {
	// 0.10 summed ten times drifts with binary floats.
	dime := menu.MustItem("Mint", "0.10", menu.CategoryBakery)
	c := New()
	for range 10 {
		require.NoError(t, c.Add(dime, 1))
	}
	require.NoError(t, c.Add(menu.MustItem("Gum", "0.20", menu.CategoryBakery), 1))

	assert.True(t, d("1.20").Equal(c.Subtotal()), "got %s", c.Subtotal())
}

func TestCart_SubtotalMatchesLinesAfterMutations(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(coffee, 2))
	require.NoError(t, c.Add(croissant, 3))
	require.NoError(t, c.Add(tea, 1))
	c.Remove("Coffee")
	require.NoError(t, c.Add(coffee, 1))
	c.Remove("Latte")

	want := decimal.Zero
	for _, l := range c.Items() {
		want = want.Add(l.Item.Price().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, want.Equal(c.Subtotal()))
	assert.True(t, d("18.25").Equal(c.Subtotal()))
	assert.Equal(t, []string{"Croissant", "Tea", "Coffee"}, names(c.Items()))
}
