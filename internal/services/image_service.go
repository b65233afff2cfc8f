package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buildboard/internal/domain"
	"buildboard/internal/ports"
)

// imagePageSize bounds how many blob keys ListImages considers.
const imagePageSize = 100

// ImageService joins the blob store and the metadata table by key equality
// at the API boundary; the two stores keep independent lifecycles.
type ImageService struct {
	blobs ports.BlobStore
	meta  ports.ImageMetaRepository
	now   func() int64
}

// NewImageService creates a new ImageService
func NewImageService(blobs ports.BlobStore, meta ports.ImageMetaRepository) *ImageService {
	return &ImageService{
		blobs: blobs,
		meta:  meta,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// ListImages returns a bounded page of blob objects, each paired with its
// metadata or nil when none exists.
func (s *ImageService) ListImages(ctx context.Context) ([]ImageEntry, error) {
	objects, err := s.blobs.List(ctx, imagePageSize)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}

	metaByKey, err := s.meta.GetByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	entries := make([]ImageEntry, len(objects))
	for i, obj := range objects {
		entries[i] = ImageEntry{Object: obj}
		if meta, ok := metaByKey[obj.Key]; ok {
			metaCopy := meta
			entries[i].Metadata = &metaCopy
		}
	}
	return entries, nil
}

// UpsertMetadata inserts or updates the sidecar row for key, refreshing
// updated_at. Absent optional fields keep their stored values. The key is
// not validated against the blob store.
func (s *ImageService) UpsertMetadata(ctx context.Context, key string, params UpsertMetadataParams) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", domain.ErrValidation)
	}

	// A failed read must not let a partial update overwrite stored fields
	// with zero values.
	existing, err := s.meta.GetByKeys(ctx, []string{key})
	if err != nil {
		return err
	}
	meta := domain.ImageMeta{Key: key}
	if current, ok := existing[key]; ok {
		meta = current
	}

	if params.Title != nil {
		meta.Title = *params.Title
	}
	if params.Alt != nil {
		meta.Alt = *params.Alt
	}
	if params.Tags != nil {
		meta.Tags = params.Tags
	}
	meta.UpdatedAt = s.now()

	return s.meta.Upsert(ctx, meta)
}
