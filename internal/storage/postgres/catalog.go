package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT name, price, category FROM menu_items ORDER BY position`

	listMenuItemsByCategorySQL = `SELECT name, price, category FROM menu_items
		WHERE category = $1 ORDER BY position`

	upsertMenuItemSQL = `INSERT INTO menu_items (name, price, category) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price, category = EXCLUDED.category`
)

var _ menu.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements menu.Repository backed by the menu_items table.
// Items are returned in insertion order.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository returns a CatalogRepository that uses db.
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// All returns every menu item.
func (r *CatalogRepository) All(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.db.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// ByCategory returns the menu items in category c.
func (r *CatalogRepository) ByCategory(ctx context.Context, c menu.Category) ([]menu.Item, error) {
	rows, err := r.db.Query(ctx, listMenuItemsByCategorySQL, string(c))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s items", c)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Upsert inserts item or updates the price and category of the existing item
// with the same name. An updated item keeps its menu position.
func (r *CatalogRepository) Upsert(ctx context.Context, item menu.Item) error {
	if _, err := r.db.Exec(ctx, upsertMenuItemSQL, item.Name(), item.Price(), string(item.Category())); err != nil {
		return errors.Wrapf(err, "upsert menu item %q", item.Name())
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		name     string
		price    decimal.Decimal
		category string
	)
	if err := row.Scan(&name, &price, &category); err != nil {
		return menu.Item{}, errors.Wrap(err, "scan menu item")
	}

	c, err := menu.ParseCategory(category)
	if err != nil {
		return menu.Item{}, errors.Wrapf(err, "menu item %q", name)
	}
	return menu.NewItem(name, price, c)
}
