package ports

import (
	"context"

	"buildboard/internal/domain"
)

// BlobStore is an opaque key/value large-object store.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns up to limit objects, key ascending.
	List(ctx context.Context, limit int) ([]domain.BlobObject, error)
}
