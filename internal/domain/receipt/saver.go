package receipt

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
)

// GuestName is recorded when a receipt is saved without a customer name.
const GuestName = "Guest"

// DBSaver renders a cart and saves it to a record Store in one step.
type DBSaver struct {
	svc   *Service
	store Store
}

// NewDBSaver creates a DBSaver.
func NewDBSaver(svc *Service, store Store) *DBSaver {
	return &DBSaver{svc: svc, store: store}
}

// RenderAndSave renders c and stores it under customerName, or GuestName
// when the name is blank. The rendered Summary is handed to the store as is.
func (s *DBSaver) RenderAndSave(ctx context.Context, c *cart.Cart, customerName string) (int64, error) {
	r := s.svc.Render(c)

	id, err := s.store.Save(ctx, Record{
		CustomerName: CustomerOrGuest(customerName),
		Lines:        r.Lines,
		Items:        r.Items,
		Summary:      r.Summary,
	})
	if err != nil {
		return 0, errors.Wrap(err, "save receipt record")
	}
	return id, nil
}

// CustomerOrGuest trims name and falls back to GuestName when it is blank.
func CustomerOrGuest(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return GuestName
}
