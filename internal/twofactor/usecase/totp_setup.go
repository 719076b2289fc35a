package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
)

type TOTPSetupOutput struct {
	Secret string
	URI    string
}

// TOTPSetup starts (or restarts) authenticator enrollment. The secret is
// shown once; only its sealed form is stored.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	factor, err := s.repoDB.GetTOTPFactor(ctx, clm.UserID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err == nil && factor.Verified {
		return nil, goerror.NewBusiness("authenticator already enabled", goerror.CodeConflict)
	}

	enrollment, err := s.totp.Enroll(clm.UserEmail, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enroll totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.UpsertPendingTOTPFactor(ctx, entity.TOTPFactor{
		ID:           int64(s.uid.Generate()),
		UserID:       clm.UserID,
		SecretSealed: enrollment.Sealed,
		CreatedAt:    s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness("authenticator already enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert pending totp factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{Secret: enrollment.Secret, URI: enrollment.URI}, nil
}

