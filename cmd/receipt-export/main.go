package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kiosk-pos/internal/domain/receipt"
	"github.com/xenking/kiosk-pos/internal/storage/bundle"
	"github.com/xenking/kiosk-pos/internal/storage/postgres"
)

const pageSize = 500

// lister is the part of *postgres.ReceiptStore used by the export.
type lister interface {
	List(ctx context.Context, afterID int64, limit int) ([]receipt.Stored, error)
}

func main() {
	var (
		databaseURL string
		outPath     string
		afterID     int64
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&outPath, "out", "", "bundle path (default receipts-<timestamp>.jsonl.gz)")
	flag.Int64Var(&afterID, "after-id", 0, "export only receipts with a greater id")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if outPath == "" {
		outPath = "receipts-" + time.Now().UTC().Format("20060102T150405") + ".jsonl.gz"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, outPath, afterID); err != nil {
		slog.Error("receipt export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("receipt export completed successfully", slog.String("path", outPath))
}

func run(ctx context.Context, databaseURL, outPath string, afterID int64) (rerr error) {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create bundle file")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close bundle file")
		}
		if rerr != nil {
			_ = os.Remove(outPath)
		}
	}()

	n, last, err := export(ctx, postgres.NewReceiptStore(pool), f, afterID)
	if err != nil {
		return err
	}

	slog.Info("exported receipts", slog.Int("count", n), slog.Int64("last_id", last))
	return nil
}

// export writes every receipt after afterID to w as a bundle and returns the
// count and the last exported id.
func export(ctx context.Context, store lister, w io.Writer, afterID int64) (int, int64, error) {
	bw, err := bundle.NewWriter(w)
	if err != nil {
		return 0, 0, err
	}

	last := afterID
	for {
		page, err := store.List(ctx, last, pageSize)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "list receipts after %d", last)
		}
		for _, r := range page {
			if err := bw.Write(r); err != nil {
				return 0, 0, err
			}
			last = r.ID
		}
		if len(page) > 0 {
			slog.Info("export progress", slog.Int("written", bw.Count()), slog.Int64("last_id", last))
		}
		if len(page) < pageSize {
			break
		}
	}

	if err := bw.Close(); err != nil {
		return 0, 0, errors.Wrap(err, "finish bundle")
	}
	return bw.Count(), last, nil
}
