package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a storage key has no object behind it.
var ErrNotFound = errors.New("object not found")

// ObjectStore keeps the original bytes of uploaded documents.
type ObjectStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
