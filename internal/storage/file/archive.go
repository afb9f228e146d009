// Package file stores rendered receipts as plain text files, one file per
// checkout.
package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

const (
	filePrefix = "receipt_"
	fileExt    = ".txt"
	timeLayout = "20060102_150405.000000000"

	maxLineSize = 1 << 20
)

var _ receipt.Archive = (*ReceiptArchive)(nil)

// ReceiptArchive writes receipts under a base directory. Writes are atomic:
// a receipt either appears complete under its final name or not at all.
//
// ReceiptArchive assumes a single writer per directory.
type ReceiptArchive struct {
	dir string
	now func() time.Time
}

// NewReceiptArchive returns an archive rooted at dir. The directory is
// created on first save.
func NewReceiptArchive(dir string) *ReceiptArchive {
	return &ReceiptArchive{dir: dir, now: time.Now}
}

// Dir returns the archive base directory.
func (a *ReceiptArchive) Dir() string {
	return a.dir
}

// Save writes lines to a new receipt file, each line terminated by '\n',
// and returns the file path.
func (a *ReceiptArchive) Save(ctx context.Context, lines []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errs.Persistence("save receipt", err)
	}

	var buf bytes.Buffer
	for i, line := range lines {
		if strings.ContainsAny(line, "\r\n") {
			return "", errs.Invalid("receipt line", fmt.Sprintf("line %d contains a line break", i+1))
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", errs.Persistence("create receipt dir", err)
	}

	path, err := a.freshPath()
	if err != nil {
		return "", errs.Persistence("name receipt file", err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", errs.Persistence("write receipt "+filepath.Base(path), err)
	}

	return path, nil
}

// List returns the paths of all receipt files in the archive, oldest first.
// A missing directory yields an empty list.
func (a *ReceiptArchive) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read receipt dir")
	}

	var paths []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt) {
			paths = append(paths, filepath.Join(a.dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// freshPath returns a time-based path that does not exist yet.
func (a *ReceiptArchive) freshPath() (string, error) {
	base := filePrefix + a.now().Format(timeLayout)
	for n := 0; n < 1000; n++ {
		name := base + fileExt
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", base, n, fileExt)
		}
		path := filepath.Join(a.dir, name)
		_, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.Errorf("no free receipt name for %s", base)
}

// ReadLines reads a receipt file back into the lines it was saved from.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}
	return lines, nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it and renames it into place. The temp file is removed on any failure.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	return d.Sync()
}
