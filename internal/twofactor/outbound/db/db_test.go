package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/pgtest"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestDB_EmailChallenge(t *testing.T) {
	s := NewDB(pgtest.New(t), instrument.NewNoop())
	ctx := context.Background()

	_, err := s.GetEmailChallenge(ctx, 7)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, s.UpsertEmailChallenge(ctx, entity.EmailChallenge{
		ID: 1, UserID: 7, Email: "owner@example.com", OTPHash: "tok-1", CreatedAt: t0, ExpiresAt: t0.Add(10 * time.Minute),
	}))

	n, err := s.ReserveEmailChallengeAttempt(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), n)
	require.NoError(t, s.RefundEmailChallengeAttempt(ctx, 1))

	for want := int32(1); want <= 2; want++ {
		n, err = s.ReserveEmailChallengeAttempt(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	_, err = s.ReserveEmailChallengeAttempt(ctx, 1, 2)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, s.MarkEmailChallengeVerified(ctx, 1, t0.Add(time.Minute)))
	require.ErrorIs(t, s.MarkEmailChallengeVerified(ctx, 1, t0.Add(2*time.Minute)), goerror.ErrConflict)

	_, err = s.ReserveEmailChallengeAttempt(ctx, 1, 5)
	require.ErrorIs(t, err, goerror.ErrNotFound, "a verified challenge takes no more guesses")

	got, err := s.GetEmailChallenge(ctx, 7)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	require.NotNil(t, got.VerifiedAt)
	assert.True(t, got.VerifiedAt.Equal(t0.Add(time.Minute)))

	// a new send replaces the record and resets its state
	require.NoError(t, s.UpsertEmailChallenge(ctx, entity.EmailChallenge{
		ID: 2, UserID: 7, Email: "owner@example.com", OTPHash: "tok-2", CreatedAt: t0.Add(time.Hour), ExpiresAt: t0.Add(70 * time.Minute),
	}))

	got, err = s.GetEmailChallenge(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, "tok-2", got.OTPHash)
	assert.False(t, got.Verified)
	assert.Nil(t, got.VerifiedAt)
	assert.Equal(t, int32(0), got.Attempts)
}

func TestDB_TOTPFactor(t *testing.T) {
	s := NewDB(pgtest.New(t), instrument.NewNoop())
	ctx := context.Background()

	_, err := s.GetTOTPFactor(ctx, 7)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, s.UpsertPendingTOTPFactor(ctx, entity.TOTPFactor{ID: 10, UserID: 7, SecretSealed: []byte{1, 2, 3}, CreatedAt: t0}))
	require.NoError(t, s.UpsertPendingTOTPFactor(ctx, entity.TOTPFactor{ID: 11, UserID: 7, SecretSealed: []byte{4, 5, 6}, CreatedAt: t0}))

	got, err := s.GetTOTPFactor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, []byte{4, 5, 6}, got.SecretSealed)
	assert.False(t, got.Verified)
	assert.Nil(t, got.LastUsedAt)

	require.NoError(t, s.MarkTOTPFactorVerified(ctx, 11, t0.Add(time.Minute)))
	require.ErrorIs(t, s.MarkTOTPFactorVerified(ctx, 11, t0.Add(time.Minute)), goerror.ErrConflict)

	// a confirmed factor is never replaced by setup
	require.ErrorIs(t, s.UpsertPendingTOTPFactor(ctx, entity.TOTPFactor{ID: 12, UserID: 7, SecretSealed: []byte{9}, CreatedAt: t0}), goerror.ErrConflict)

	require.NoError(t, s.TouchTOTPFactor(ctx, 11, t0.Add(time.Hour)))

	got, err = s.GetTOTPFactor(ctx, 7)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, []byte{4, 5, 6}, got.SecretSealed)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.Equal(t0.Add(time.Hour)))
}
