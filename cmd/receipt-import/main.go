package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kiosk-pos/internal/app"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
	"github.com/xenking/kiosk-pos/internal/storage/file"
	"github.com/xenking/kiosk-pos/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	listPageSize  = 500
	progressEvery = 1000
)

// receiptStore is the part of *postgres.ReceiptStore used by the import.
type receiptStore interface {
	receipt.Store
	List(ctx context.Context, afterID int64, limit int) ([]receipt.Stored, error)
	HasText(ctx context.Context, lines []string) (bool, error)
}

// parsedFile is one receipt file read back from the archive.
type parsedFile struct {
	path    string
	lines   []string
	summary receipt.Summary
	err     error
}

type stats struct {
	imported   int
	duplicates int
	malformed  int
}

func main() {
	var (
		receiptDir  string
		databaseURL string
		workers     int
		dryRun      bool
	)

	flag.StringVar(&receiptDir, "receipt-dir", "", "receipt directory (or KIOSK_RECEIPT_DIR env, default $HOME/kiosk-receipts)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "number of files parsed concurrently")
	flag.BoolVar(&dryRun, "dry-run", false, "parse receipts and report without writing")
	flag.Parse()

	if receiptDir == "" {
		receiptDir = os.Getenv("KIOSK_RECEIPT_DIR")
	}
	if receiptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("receipt dir is required: set --receipt-dir or KIOSK_RECEIPT_DIR")
			os.Exit(1)
		}
		receiptDir = filepath.Join(home, app.DefaultReceiptDirName)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, receiptDir, databaseURL, workers, dryRun); err != nil {
		slog.Error("receipt import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("receipt import completed successfully")
}

func run(ctx context.Context, receiptDir, databaseURL string, workers int, dryRun bool) error {
	paths, err := file.NewReceiptArchive(receiptDir).List(ctx)
	if err != nil {
		return errors.Wrap(err, "list receipts")
	}
	slog.Info("found receipt files", slog.String("dir", receiptDir), slog.Int("count", len(paths)))

	if dryRun {
		parsed, err := parseFiles(ctx, paths, workers)
		if err != nil {
			return errors.Wrap(err, "parse receipts")
		}
		var malformed int
		for _, p := range parsed {
			if p.err != nil {
				malformed++
				slog.Warn("malformed receipt", slog.String("path", p.path), slog.String("error", p.err.Error()))
			}
		}
		slog.Info("dry run complete", slog.Int("valid", len(parsed)-malformed), slog.Int("malformed", malformed))
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	st, err := importFiles(ctx, postgres.NewReceiptStore(pool), paths, workers)
	if err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int("imported", st.imported),
		slog.Int("duplicates", st.duplicates),
		slog.Int("malformed", st.malformed),
	)
	return nil
}

// importFiles builds the duplicate filter from the store while the files
// are parsed, then inserts new receipts through the single store writer.
func importFiles(ctx context.Context, store receiptStore, paths []string, workers int) (stats, error) {
	var (
		filter *bloom.BloomFilter
		parsed []parsedFile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if filter, err = buildFilter(gctx, store); err != nil {
			return errors.Wrap(err, "build duplicate filter")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if parsed, err = parseFiles(gctx, paths, workers); err != nil {
			return errors.Wrap(err, "parse receipts")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stats{}, err
	}

	var st stats
	for i, p := range parsed {
		if p.err != nil {
			st.malformed++
			slog.Warn("skipping malformed receipt", slog.String("path", p.path), slog.String("error", p.err.Error()))
			continue
		}

		text := strings.Join(p.lines, "\n")
		if filter.TestString(text) {
			dup, err := store.HasText(ctx, p.lines)
			if err != nil {
				return st, errors.Wrapf(err, "check %s", p.path)
			}
			if dup {
				st.duplicates++
				continue
			}
		}

		id, err := store.Save(ctx, receipt.Record{
			OrderID:      strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path)),
			CustomerName: receipt.GuestName,
			Lines:        p.lines,
			Summary:      p.summary,
		})
		if err != nil {
			return st, errors.Wrapf(err, "import %s", p.path)
		}
		filter.AddString(text)
		st.imported++
		slog.Debug("imported receipt", slog.String("path", p.path), slog.Int64("id", id))

		if (i+1)%progressEvery == 0 {
			slog.Info("import progress", slog.Int("processed", i+1), slog.Int("total", len(parsed)))
		}
	}
	return st, nil
}

// buildFilter pages through every stored receipt and records its full text.
func buildFilter(ctx context.Context, store receiptStore) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var (
		afterID int64
		count   int
	)
	for {
		page, err := store.List(ctx, afterID, listPageSize)
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			filter.AddString(strings.Join(r.Lines, "\n"))
			afterID = r.ID
		}
		count += len(page)
		if len(page) < listPageSize {
			break
		}
	}

	slog.Info("duplicate filter ready", slog.Int("stored_receipts", count))
	return filter, nil
}

// parseFiles reads and parses receipt files concurrently. A file whose
// trailer does not parse is reported in its result; read failures abort.
func parseFiles(ctx context.Context, paths []string, workers int) ([]parsedFile, error) {
	results := make([]parsedFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lines, err := file.ReadLines(path)
			if err != nil {
				return err
			}
			summary, err := receipt.ParseTrailer(lines)
			results[i] = parsedFile{path: path, lines: lines, summary: summary, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
