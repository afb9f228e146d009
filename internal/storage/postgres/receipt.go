package postgres

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/kiosk-pos/db"
	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

const (
	insertReceiptSQL = `INSERT INTO receipts (order_id, full_text, customer_name, subtotal, tax, total, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	receiptColumns = `id, order_id, full_text, customer_name, subtotal, tax, total, items, created_at`

	getReceiptSQL = `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`

	listReceiptsSQL = `SELECT ` + receiptColumns + ` FROM receipts
		WHERE id > $1 ORDER BY id LIMIT $2`

	hasReceiptTextSQL = `SELECT EXISTS (SELECT 1 FROM receipts WHERE full_text = $1)`
)

// DefaultListLimit caps List when called with a non-positive limit.
const DefaultListLimit = 100

var _ receipt.Store = (*ReceiptStore)(nil)

// ReceiptStore implements receipt.Store backed by the receipts table.
//
// The schema is created on the first Save. A failed attempt is retried on
// the next Save.
type ReceiptStore struct {
	db DB

	mu          sync.Mutex
	schemaReady bool
}

// NewReceiptStore returns a ReceiptStore that uses db.
func NewReceiptStore(db DB) *ReceiptStore {
	return &ReceiptStore{db: db}
}

// Save inserts rec as a single row and returns its identifier. A blank
// customer name is stored as receipt.GuestName. All failures are
// *errs.PersistenceError and leave no partial row behind.
func (s *ReceiptStore) Save(ctx context.Context, rec receipt.Record) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, errs.Persistence("ensure receipt schema", err)
	}

	var id int64
	err := s.db.QueryRow(ctx, insertReceiptSQL,
		rec.OrderID,
		strings.Join(rec.Lines, "\n"),
		receipt.CustomerOrGuest(rec.CustomerName),
		rec.Summary.Subtotal,
		rec.Summary.Tax,
		rec.Summary.Total,
		encodeItems(rec.Items),
	).Scan(&id)
	if err != nil {
		return 0, errs.Persistence("insert receipt", err)
	}
	if id <= 0 {
		return 0, errs.Persistence("insert receipt", errors.Errorf("unexpected id %d", id))
	}
	return id, nil
}

// Get returns the receipt with the given id, or receipt.ErrNotFound.
func (s *ReceiptStore) Get(ctx context.Context, id int64) (*receipt.Stored, error) {
	rows, err := s.db.Query(ctx, getReceiptSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get receipt %d", id)
	}

	r, err := pgx.CollectExactlyOneRow(rows, scanReceipt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, receipt.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get receipt %d", id)
	}
	return &r, nil
}

// List returns up to limit receipts with an id greater than afterID, in id
// order. Pass the last returned id as afterID to page forward.
func (s *ReceiptStore) List(ctx context.Context, afterID int64, limit int) ([]receipt.Stored, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(ctx, listReceiptsSQL, afterID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}
	return pgx.CollectRows(rows, scanReceipt)
}

// HasText reports whether a receipt with exactly these lines is stored.
func (s *ReceiptStore) HasText(ctx context.Context, lines []string) (bool, error) {
	var ok bool
	if err := s.db.QueryRow(ctx, hasReceiptTextSQL, strings.Join(lines, "\n")).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "check receipt text")
	}
	return ok, nil
}

func (s *ReceiptStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schemaReady {
		return nil
	}
	if _, err := s.db.Exec(ctx, db.Schema); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}

func scanReceipt(row pgx.CollectableRow) (receipt.Stored, error) {
	var (
		r         receipt.Stored
		fullText  string
		items     []byte
		createdAt time.Time
	)
	err := row.Scan(
		&r.ID, &r.OrderID, &fullText, &r.CustomerName,
		&r.Summary.Subtotal, &r.Summary.Tax, &r.Summary.Total,
		&items, &createdAt,
	)
	if err != nil {
		return receipt.Stored{}, errors.Wrap(err, "scan receipt")
	}

	if fullText != "" {
		r.Lines = strings.Split(fullText, "\n")
	}
	if r.Items, err = decodeItems(items); err != nil {
		return receipt.Stored{}, errors.Wrapf(err, "receipt %d", r.ID)
	}
	r.CreatedAt = createdAt
	return r, nil
}
