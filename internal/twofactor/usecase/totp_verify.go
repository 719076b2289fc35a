package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
)

type TOTPVerifyInput struct {
	Code string `validate:"required,otpcode"`
}

func (s *Usecase) TOTPVerify(ctx context.Context, in TOTPVerifyInput) (*ElevatedOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	factor, err := s.repoDB.GetTOTPFactor(ctx, clm.UserID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err != nil || !factor.Verified {
		return nil, goerror.NewBusiness("authenticator not enabled", goerror.CodeNotFound)
	}

	now := s.clock.Now()
	ok, err := s.totp.Valid(in.Code, factor.SecretSealed, clm.UserID, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp seed", "user_id", clm.UserID, "factor_id", factor.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "invalid totp code", "user_id", clm.UserID, "factor_id", factor.ID)
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	if err := s.repoDB.TouchTOTPFactor(ctx, factor.ID, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo touch totp factor", "user_id", clm.UserID, "factor_id", factor.ID, "error", err)
	}

	token, err := s.jwt.Generate(clm.UserID, clm.UserEmail, entity.AMRMFA, entity.AMRTOTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate elevated token", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ElevatedOutput{AccessToken: token}, nil
}
