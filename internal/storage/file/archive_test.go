package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
	"github.com/xenking/kiosk-pos/internal/domain/tax"
)

func renderCoffee(t *testing.T) []string {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.Add(menu.MustItem("Coffee", "3.00", menu.CategoryDrink), 2))
	calc, err := tax.NewFlatRate(decimal.RequireFromString("0.06"))
	require.NoError(t, err)
	return receipt.NewService(calc).Render(c).Lines
}

func TestReceiptArchive_RoundTrip(t *testing.T) {
	archive := NewReceiptArchive(t.TempDir())
	lines := renderCoffee(t)

	path, err := archive.Save(context.Background(), lines)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	got, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, lines, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lines, "\n")+"\n", string(raw))
}

func TestReceiptArchive_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kiosk", "receipts", "2026")
	archive := NewReceiptArchive(dir)

	path, err := archive.Save(context.Background(), []string{"KIOSK RECEIPT", "Total: 0.00"})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "receipt_"))
	assert.True(t, strings.HasSuffix(path, ".txt"))
}

func TestReceiptArchive_UniqueNamesWithSameClock(t *testing.T) {
	archive := NewReceiptArchive(t.TempDir())
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	archive.now = func() time.Time { return fixed }

	first, err := archive.Save(context.Background(), []string{"one"})
	require.NoError(t, err)
	second, err := archive.Save(context.Background(), []string{"two"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "receipt_20261018_093000.000000000.txt", filepath.Base(first))

	got, err := ReadLines(first)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got, "first receipt must not be overwritten")
}

func TestReceiptArchive_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	archive := NewReceiptArchive(dir)

	_, err := archive.Save(context.Background(), renderCoffee(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ".tmp")
}

func TestReceiptArchive_RejectsLineBreaks(t *testing.T) {
	dir := t.TempDir()
	archive := NewReceiptArchive(dir)

	_, err := archive.Save(context.Background(), []string{"Coffee", "Tax: 0.36\nTotal: 6.36"})
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReceiptArchive_UncreatableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	archive := NewReceiptArchive(filepath.Join(blocker, "receipts"))
	path, err := archive.Save(context.Background(), []string{"Total: 1.00"})

	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.Empty(t, path)

	var pErr *errs.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "create receipt dir", pErr.Op)
}

func TestReceiptArchive_CanceledContext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	archive := NewReceiptArchive(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := archive.Save(ctx, []string{"x"})
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReceiptArchive_List(t *testing.T) {
	dir := t.TempDir()
	archive := NewReceiptArchive(dir)
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	tick := 0
	archive.now = func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Minute)
	}

	var saved []string
	for range 3 {
		p, err := archive.Save(context.Background(), []string{"Total: 1.00"})
		require.NoError(t, err)
		saved = append(saved, p)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	got, err := archive.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	missing := NewReceiptArchive(filepath.Join(dir, "missing"))
	got, err = missing.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
