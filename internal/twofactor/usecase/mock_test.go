package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
	vusecase "github.com/fursurecare/otpservice/internal/verification/usecase"
)

type mockDB struct{ mock.Mock }

func (m *mockDB) GetEmailChallenge(ctx context.Context, userID int64) (*entity.EmailChallenge, error) {
	args := m.Called(ctx, userID)
	ch, _ := args.Get(0).(*entity.EmailChallenge)
	return ch, args.Error(1)
}

func (m *mockDB) UpsertEmailChallenge(ctx context.Context, c entity.EmailChallenge) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockDB) ReserveEmailChallengeAttempt(ctx context.Context, id int64, maxAttempts int32) (int32, error) {
	args := m.Called(ctx, id, maxAttempts)
	return args.Get(0).(int32), args.Error(1)
}

func (m *mockDB) RefundEmailChallengeAttempt(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDB) MarkEmailChallengeVerified(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockDB) GetTOTPFactor(ctx context.Context, userID int64) (*entity.TOTPFactor, error) {
	args := m.Called(ctx, userID)
	f, _ := args.Get(0).(*entity.TOTPFactor)
	return f, args.Error(1)
}

func (m *mockDB) UpsertPendingTOTPFactor(ctx context.Context, f entity.TOTPFactor) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockDB) MarkTOTPFactorVerified(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockDB) TouchTOTPFactor(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Issue(ctx context.Context, in vusecase.IssueInput) (*vusecase.IssueOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*vusecase.IssueOutput)
	return out, args.Error(1)
}

func (m *mockVerifier) Verify(ctx context.Context, in vusecase.VerifyInput) (*vusecase.VerifyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*vusecase.VerifyOutput)
	return out, args.Error(1)
}

func (m *mockVerifier) ReleaseCooldown(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockJWT struct{ mock.Mock }

func (m *mockJWT) Generate(uid int64, email string, amr ...string) (string, error) {
	args := m.Called(uid, email, amr)
	return args.String(0), args.Error(1)
}

func (m *mockJWT) Verify(tokenStr string) (jwt.Claims, error) {
	args := m.Called(tokenStr)
	return args.Get(0).(jwt.Claims), args.Error(1)
}
