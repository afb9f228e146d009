package bundle

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func stored(id int64, customer string) receipt.Stored {
	return receipt.Stored{
		ID:        id,
		CreatedAt: time.Date(2026, 10, 18, 9, 30, 0, 123, time.UTC),
		Record: receipt.Record{
			OrderID:      "order-" + customer,
			CustomerName: customer,
			Lines:        []string{"KIOSK RECEIPT", "Coffee x2 @ 3.00 = 6.00", "Subtotal: 6.00", "Tax: 0.36", "Total: 6.36"},
			Items: []receipt.LineItem{
				{Name: "Coffee", Category: "drink", UnitPrice: d("3.00"), Quantity: 2},
			},
			Summary: receipt.Summary{Subtotal: d("6.00"), Tax: d("0.36"), Total: d("6.36")},
		},
	}
}

func TestBundle_WriteRead(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	in := []receipt.Stored{stored(1, "Alice"), stored(2, `Bob "the builder"`)}
	for _, r := range in {
		require.NoError(t, w.Write(r))
	}
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	out, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
		assert.Equal(t, in[i].CustomerName, out[i].CustomerName)
		assert.Equal(t, in[i].Lines, out[i].Lines)
		assert.True(t, in[i].CreatedAt.Equal(out[i].CreatedAt))
		assert.True(t, in[i].Summary.Equal(out[i].Summary))
		require.Len(t, out[i].Items, 1)
		assert.True(t, d("3.00").Equal(out[i].Items[0].UnitPrice))
	}
}

func TestBundle_IsGzipJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(stored(7, "Alice")))
	require.NoError(t, w.Close())

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	text := string(raw)
	assert.True(t, strings.HasSuffix(text, "\n"))
	assert.Equal(t, 1, strings.Count(text, "\n"))
	assert.Contains(t, text, `"id":7`)
	assert.Contains(t, text, `"total":"6.36"`)
}

func TestBundle_Empty(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReader_NextReportsLine(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("{\"id\":1}\n\n{\"id\":\"x\"}\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestNewReader_NotGzip(t *testing.T) {
	_, err := NewReader(strings.NewReader("plain text"))
	require.Error(t, err)
}
