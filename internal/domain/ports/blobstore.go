package ports

import (
	"context"
	"io"

	"podstream/internal/domain"
)

// BlobUpload carries the metadata stored alongside uploaded bytes.
type BlobUpload struct {
	Filename    string
	ContentType string
	Role        domain.BlobRole
	UploaderID  domain.UserID
}

// BlobStore is a content store keyed by opaque identifiers. Upload returns
// only after the store has confirmed durability. Download returns a reader
// positioned at offset zero; ranged reads go through DownloadRange.
type BlobStore interface {
	Upload(ctx context.Context, src io.Reader, meta BlobUpload) (domain.BlobID, error)
	Download(ctx context.Context, id domain.BlobID) (io.ReadCloser, domain.BlobInfo, error)
	// DownloadRange streams length bytes starting at offset. A negative
	// length means "to the end".
	DownloadRange(ctx context.Context, id domain.BlobID, offset, length int64) (io.ReadCloser, domain.BlobInfo, error)
	Stat(ctx context.Context, id domain.BlobID) (domain.BlobInfo, error)
	Delete(ctx context.Context, id domain.BlobID) error
}
