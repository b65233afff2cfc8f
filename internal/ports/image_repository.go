package ports

import (
	"context"

	"buildboard/internal/domain"
)

// ImageMetaRepository stores sidecar metadata keyed by blob object key.
type ImageMetaRepository interface {
	Upsert(ctx context.Context, meta domain.ImageMeta) error
	// GetByKeys batch-loads metadata for exactly the given keys; absent keys
	// are simply missing from the result map.
	GetByKeys(ctx context.Context, keys []string) (map[string]domain.ImageMeta, error)
}
