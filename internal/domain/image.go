package domain

// ImageMeta is descriptive sidecar metadata for a blob object, keyed by the
// object key. The blob and its metadata have independent lifecycles; they are
// joined only at the API boundary.
type ImageMeta struct {
	Key       string
	Title     string
	Alt       string
	Tags      []string
	UpdatedAt int64 // epoch seconds
}

// BlobObject is a directory entry of the blob store.
type BlobObject struct {
	Key      string
	Size     int64
	Uploaded int64 // epoch seconds
}
