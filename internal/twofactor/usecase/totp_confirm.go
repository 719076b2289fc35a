package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
)

type TOTPConfirmInput struct {
	Code string `validate:"required,otpcode"`
}

func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	factor, err := s.repoDB.GetTOTPFactor(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("authenticator setup not started", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if factor.Verified {
		return goerror.NewBusiness("authenticator already enabled", goerror.CodeConflict)
	}

	ok, err := s.totp.Valid(in.Code, factor.SecretSealed, clm.UserID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp seed", "user_id", clm.UserID, "factor_id", factor.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "invalid totp code on confirm", "user_id", clm.UserID, "factor_id", factor.ID)
		return goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	err = s.repoDB.MarkTOTPFactorVerified(ctx, factor.ID, s.clock.Now())
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusiness("authenticator already enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark totp factor verified", "user_id", clm.UserID, "factor_id", factor.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
