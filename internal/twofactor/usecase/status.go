package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
)

type StatusOutput struct {
	EmailOTP              bool
	TOTPEnabled           bool
	PendingEmailChallenge bool
}

func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{EmailOTP: true}

	factor, err := s.repoDB.GetTOTPFactor(ctx, clm.UserID)
	switch {
	case err == nil:
		out.TOTPEnabled = factor.Verified
	case !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ch, err := s.repoDB.GetEmailChallenge(ctx, clm.UserID)
	switch {
	case err == nil:
		out.PendingEmailChallenge = ch.IsPending(s.clock.Now(), s.maxAttempts())
	case !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get email challenge", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}
