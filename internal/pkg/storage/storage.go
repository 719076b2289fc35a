// Package storage writes objects to a bucket and hands out time-limited
// download links for them. Drivers: AWS S3, Google Cloud Storage and MinIO.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"time"
)

// ErrMissingSigner indicates signed URL support is not configured.
var ErrMissingSigner = errors.New("storage: signed url signer not configured")

// Storage defines the object operations the service needs.
type Storage interface {
	io.Closer

	// PutObject stores r under bucket/key.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// DeleteObject removes bucket/key.
	DeleteObject(ctx context.Context, bucket, key string) error
	// PresignGet returns a URL that downloads bucket/key until expiry elapses.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions configures an upload.
type PutOptions struct {
	// Size is the content length. Required by MinIO for single-part uploads.
	Size int64
	// ContentType is the MIME type.
	ContentType string
	// Metadata is stored as user metadata.
	Metadata map[string]string
	// DownloadName makes presigned links download as an attachment with
	// this file name.
	DownloadName string
	// CacheControl is served with the object, e.g. "private, no-store".
	CacheControl string
}

func (o PutOptions) contentDisposition() string {
	if o.DownloadName == "" {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": o.DownloadName})
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
