package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fursurecare/otpservice/internal/verification/entity"
)

type mockCache struct{ mock.Mock }

func (m *mockCache) AcquireCooldown(ctx context.Context, email string, ttl time.Duration) (bool, time.Duration, error) {
	args := m.Called(ctx, email, ttl)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *mockCache) ReleaseCooldown(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockCache) MarkConsumed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, fingerprint, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetLatestToken(ctx context.Context, email, fingerprint string, ttl time.Duration) error {
	return m.Called(ctx, email, fingerprint, ttl).Error(0)
}

func (m *mockCache) GetLatestToken(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendOTP(ctx context.Context, msg entity.OTPMail) error {
	return m.Called(ctx, msg).Error(0)
}

type mockMessaging struct{ mock.Mock }

func (m *mockMessaging) PublishEvent(ctx context.Context, ev entity.Event) error {
	return m.Called(ctx, ev).Error(0)
}

type fixedCode string

func (c fixedCode) Generate() (string, error) { return string(c), nil }
