package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewFromDriver_Unknown(t *testing.T) {
	_, err := NewFromDriver(context.Background(), "ftp", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestPutOptions_ContentDisposition(t *testing.T) {
	assert.Empty(t, PutOptions{}.contentDisposition())
	assert.Equal(t, `attachment; filename=audit-20250301.json`, PutOptions{DownloadName: "audit-20250301.json"}.contentDisposition())
	assert.Equal(t, `attachment; filename="rex audit.json"`, PutOptions{DownloadName: "rex audit.json"}.contentDisposition())
}

func TestGCSAuth_ClientOptions(t *testing.T) {
	ctx := context.Background()

	opts, err := GCSAuth{}.ClientOptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = GCSAuth{WithoutAuth: true, Endpoint: "http://localhost:4443/storage/v1/"}.ClientOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	_, err = GCSAuth{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}.ClientOptions(ctx)
	assert.ErrorContains(t, err, "storage: read gcs credentials")

	_, err = GCSAuth{CredentialsJSON: []byte("{not json")}.ClientOptions(ctx)
	assert.ErrorContains(t, err, "storage: parse gcs credentials")
}

func TestPresignGet_Offline(t *testing.T) {
	ctx := context.Background()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	tests := []struct {
		name      string
		driver    string
		opts      FactoryOptions
		signature string
	}{
		{
			name:   "s3",
			driver: DriverS3,
			opts: FactoryOptions{S3: S3Options{
				Region:       "ap-southeast-1",
				Endpoint:     "http://localhost:9000",
				AccessKey:    "access",
				SecretKey:    "secret",
				UsePathStyle: true,
			}},
			signature: "X-Amz-Signature",
		},
		{
			name:   "minio",
			driver: DriverMinIO,
			opts: FactoryOptions{MinIO: MinIOOptions{
				Endpoint:  "localhost:9000",
				AccessKey: "access",
				SecretKey: "secret",
				Region:    "us-east-1",
			}},
			signature: "X-Amz-Signature",
		},
		{
			name:   "gcs",
			driver: DriverGCS,
			opts: FactoryOptions{GCS: GCSOptions{
				ClientOptions:  []option.ClientOption{option.WithoutAuthentication()},
				GoogleAccessID: "exporter@fursurecare.iam.gserviceaccount.com",
				PrivateKey:     pemKey,
			}},
			signature: "X-Goog-Signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewFromDriver(ctx, tt.driver, tt.opts)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			raw, err := st.PresignGet(ctx, "audit-exports", "verification-audit/7/export.json", 15*time.Minute)
			require.NoError(t, err)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Contains(t, u.Path, "verification-audit/7/export.json")
			assert.NotEmpty(t, u.Query().Get(tt.signature))
		})
	}
}

func TestGCS_PresignWithoutSigner(t *testing.T) {
	st, err := NewGCS(context.Background(), GCSOptions{
		ClientOptions: []option.ClientOption{option.WithoutAuthentication()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.PresignGet(context.Background(), "audit-exports", "k", time.Minute)
	require.ErrorIs(t, err, ErrMissingSigner)
}
