// Package bundle reads and writes receipt bundles: gzip-compressed JSON
// Lines files holding one stored receipt per line.
package bundle

import (
	"bufio"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

const maxLineSize = 4 << 20

// Writer appends receipts to a bundle. Close must be called to flush the
// gzip stream; it does not close the underlying writer.
type Writer struct {
	zw    *pgzip.Writer
	e     jx.Encoder
	count int
}

// NewWriter returns a Writer compressing into w.
func NewWriter(w io.Writer) (*Writer, error) {
	zw, err := pgzip.NewWriterLevel(w, pgzip.BestCompression)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip writer")
	}
	return &Writer{zw: zw}, nil
}

// Write appends r as one line.
func (w *Writer) Write(r receipt.Stored) error {
	w.e.Reset()
	encodeStored(&w.e, r)
	if _, err := w.zw.Write(append(w.e.Bytes(), '\n')); err != nil {
		return errors.Wrapf(err, "write receipt %d", r.ID)
	}
	w.count++
	return nil
}

// Count returns the number of receipts written so far.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and terminates the gzip stream.
func (w *Writer) Close() error {
	return w.zw.Close()
}

// Reader streams receipts out of a bundle.
type Reader struct {
	zr      *pgzip.Reader
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader decompressing r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{zr: zr, scanner: scanner}, nil
}

// Next returns the next receipt, or io.EOF after the last one. Blank lines
// are skipped.
func (r *Reader) Next() (receipt.Stored, error) {
	for r.scanner.Scan() {
		r.line++
		data := r.scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		s, err := decodeStored(jx.DecodeBytes(data))
		if err != nil {
			return receipt.Stored{}, errors.Wrapf(err, "line %d", r.line)
		}
		return s, nil
	}
	if err := r.scanner.Err(); err != nil {
		return receipt.Stored{}, errors.Wrap(err, "read bundle")
	}
	return receipt.Stored{}, io.EOF
}

// Close releases the gzip reader.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// ReadAll decodes every receipt in the bundle read from r.
func ReadAll(r io.Reader) ([]receipt.Stored, error) {
	br, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = br.Close() }()

	var out []receipt.Stored
	for {
		s, err := br.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

func encodeStored(e *jx.Encoder, r receipt.Stored) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(r.ID)
	e.FieldStart("order_id")
	e.Str(r.OrderID)
	e.FieldStart("customer_name")
	e.Str(r.CustomerName)
	e.FieldStart("created_at")
	e.Str(r.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("summary")
	receipt.WriteSummary(e, r.Summary)
	e.FieldStart("items")
	receipt.WriteItems(e, r.Items)
	e.FieldStart("lines")
	e.ArrStart()
	for _, line := range r.Lines {
		e.Str(line)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func decodeStored(d *jx.Decoder) (receipt.Stored, error) {
	var r receipt.Stored
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			r.ID, err = d.Int64()
		case "order_id":
			r.OrderID, err = d.Str()
		case "customer_name":
			r.CustomerName, err = d.Str()
		case "created_at":
			var s string
			if s, err = d.Str(); err == nil {
				r.CreatedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		case "summary":
			r.Summary, err = receipt.ReadSummary(d)
		case "items":
			r.Items, err = receipt.ReadItems(d)
		case "lines":
			err = d.Arr(func(d *jx.Decoder) error {
				line, err := d.Str()
				if err != nil {
					return err
				}
				r.Lines = append(r.Lines, line)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return receipt.Stored{}, errors.Wrap(err, "decode receipt")
	}
	return r, nil
}
