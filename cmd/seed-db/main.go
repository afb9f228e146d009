package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/kiosk-pos/db"
	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "path to menu JSON file (default: built-in menu)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile string) error {
	items, err := loadMenu(menuFile)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog := postgres.NewCatalogRepository(pool)

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	for _, item := range items {
		if err := catalog.Upsert(ctx, item); err != nil {
			return err
		}
		slog.Info("upserted menu item",
			slog.String("name", item.Name()),
			slog.String("price", item.Price().StringFixed(2)),
			slog.String("category", string(item.Category())),
		)
	}

	return nil
}

func loadMenu(path string) ([]menu.Item, error) {
	data := db.SeedMenu
	if path != "" {
		slog.Info("reading menu file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read menu file")
		}
	}
	return menu.DecodeJSON(data)
}
