package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures the Google Cloud Storage driver.
type GCSOptions struct {
	// ClientOptions are passed to the GCS client, e.g. credentials or endpoint.
	ClientOptions []option.ClientOption
	// GoogleAccessID is the service account email used for signed URLs.
	GoogleAccessID string
	// PrivateKey is the PEM service account key used for signed URLs.
	PrivateKey []byte
}

// GCS implements Storage using Google Cloud Storage.
type GCS struct {
	client   *gcs.Client
	accessID string
	key      []byte
	now      func() time.Time
}

// NewGCS creates the client. Without GoogleAccessID and PrivateKey, PresignGet
// returns ErrMissingSigner.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	return &GCS{
		client:   client,
		accessID: opts.GoogleAccessID,
		key:      opts.PrivateKey,
		now:      time.Now,
	}, nil
}

func (g *GCS) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.ContentDisposition = opts.contentDisposition()
	w.CacheControl = opts.CacheControl
	w.Metadata = opts.Metadata

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	info := ObjectInfo{Bucket: bucket, Key: key, Size: opts.Size}
	if attrs := w.Attrs(); attrs != nil {
		info.Size = attrs.Size
		info.ETag = attrs.Etag
	}
	return info, nil
}

func (g *GCS) DeleteObject(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (g *GCS) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.accessID == "" || len(g.key) == 0 {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Method:         http.MethodGet,
		Expires:        g.now().Add(expiry),
		GoogleAccessID: g.accessID,
		PrivateKey:     g.key,
		Scheme:         gcs.SigningSchemeV4,
	})
}

func (g *GCS) Close() error {
	return g.client.Close()
}
