// Package receipts stores receipt files attached to transactions. The ledger
// only records the object key.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"conti/internal/core"
)

// Prefix is the root of every receipt key.
const Prefix = "receipts"

// MaxSize bounds an uploaded receipt.
const MaxSize = 10 << 20

var (
	ErrNotFound   = fmt.Errorf("receipt %w", core.ErrNotFound)
	ErrInvalidKey = core.Invalidf("invalid receipt key")
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".pdf": true,
}

// Store keeps receipt objects under keys built by Key or NewKey.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Key returns "receipts/<year>/<month>/<name>" with a zero-padded month.
func Key(year, month int, name string) string {
	return fmt.Sprintf("%s/%04d/%02d/%s", Prefix, year, month, name)
}

// NewKey builds a fresh key for a receipt uploaded on day. The original file
// name only contributes its extension.
func NewKey(day core.Date, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return "", core.Invalidf("unsupported receipt type %q", ext)
	}
	return Key(day.Year(), day.Month(), uuid.NewString()+ext), nil
}

// ValidateKey rejects keys that are not under Prefix or try to climb out of it.
func ValidateKey(key string) error {
	if key == "" || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || !strings.HasPrefix(clean, Prefix+"/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(clean, "/") {
		if part == ".." || part == "." {
			return ErrInvalidKey
		}
	}
	return nil
}

// limitReader fails once more than MaxSize bytes have been read.
type limitReader struct {
	r io.Reader
	n int64
}

var errTooLarge = core.Invalidf("receipt larger than %d bytes", MaxSize)

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > MaxSize {
		return n, errTooLarge
	}
	return n, err
}

func limited(r io.Reader) io.Reader { return &limitReader{r: r} }

// IsTooLarge reports whether err comes from a receipt over MaxSize.
func IsTooLarge(err error) bool { return errors.Is(err, errTooLarge) }
