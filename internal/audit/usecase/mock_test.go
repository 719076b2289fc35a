package usecase

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
)

type mockDB struct{ mock.Mock }

func (m *mockDB) InsertVerificationEvent(ctx context.Context, ev entity.VerificationEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockDB) ListVerificationEvents(ctx context.Context, f entity.VerificationEventFilter) ([]entity.VerificationEvent, int64, error) {
	args := m.Called(ctx, f)
	events, _ := args.Get(0).([]entity.VerificationEvent)
	return events, args.Get(1).(int64), args.Error(2)
}

// mockIdemp runs fn when the expectation returns true as its first value.
type mockIdemp struct{ mock.Mock }

func (m *mockIdemp) Acquire(ctx context.Context, key string, d time.Duration) (idempotency.State, error) {
	args := m.Called(ctx, key, d)
	return args.Get(0).(idempotency.State), args.Error(1)
}

func (m *mockIdemp) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return m.Called(ctx, key, ttl).Error(0)
}

func (m *mockIdemp) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return m.Called(ctx, key, ttl).Error(0)
}

func (m *mockIdemp) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	args := m.Called(key)
	if args.Bool(0) {
		return fn(ctx)
	}
	return args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Close() error { return nil }

func (m *mockStorage) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(bucket, key, string(body), opts)
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, args.Error(0)
}

func (m *mockStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	return m.Called(bucket, key).Error(0)
}

func (m *mockStorage) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	args := m.Called(bucket, key, expiry)
	return args.String(0), args.Error(1)
}
