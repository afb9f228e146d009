package postgres

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

// encodeItems renders line items as the JSON array stored in receipts.items.
func encodeItems(items []receipt.LineItem) []byte {
	var e jx.Encoder
	receipt.WriteItems(&e, items)
	return e.Bytes()
}

func decodeItems(data []byte) ([]receipt.LineItem, error) {
	return receipt.ReadItems(jx.DecodeBytes(data))
}
