package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Driver names accepted by NewFromDriver.
const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every driver; only the selected
// driver's section is read.
type FactoryOptions struct {
	S3      S3Options
	GCS     GCSOptions
	GCSAuth GCSAuth
	MinIO   MinIOOptions
}

// GCSAuth resolves GCS client credentials. CredentialsFile and
// CredentialsJSON hold a service account key; when both are set the JSON wins.
type GCSAuth struct {
	WithoutAuth     bool
	CredentialsFile string
	CredentialsJSON []byte
	Endpoint        string
}

// ClientOptions turns a into options for the GCS client.
func (a GCSAuth) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if a.WithoutAuth {
		opts = append(opts, option.WithoutAuthentication())
	}

	key := a.CredentialsJSON
	if len(key) == 0 && a.CredentialsFile != "" {
		// #nosec G304 -- path comes from the service config.
		b, err := os.ReadFile(a.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("storage: read gcs credentials: %w", err)
		}
		key = b
	}
	if len(key) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, key, gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	if a.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.Endpoint))
	}

	return opts, nil
}

// NewFromDriver builds the Storage named by driver, matched case-insensitively.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverGCS:
		auth, err := opts.GCSAuth.ClientOptions(ctx)
		if err != nil {
			return nil, err
		}
		g := opts.GCS
		g.ClientOptions = append(auth, g.ClientOptions...)
		return NewGCS(ctx, g)
	case DriverMinIO:
		return NewMinIO(opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
