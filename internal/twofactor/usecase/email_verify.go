package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
	ventity "github.com/fursurecare/otpservice/internal/verification/entity"
	vusecase "github.com/fursurecare/otpservice/internal/verification/usecase"
)

type EmailVerifyInput struct {
	Code string `validate:"required,otpcode"`
}

func (s *Usecase) EmailVerify(ctx context.Context, in EmailVerifyInput) (*ElevatedOutput, error) {
	ctx, span := s.startSpan(ctx, "EmailVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := s.repoDB.GetEmailChallenge(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("no pending email code, request a new one", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get email challenge", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ch.Verified {
		slog.WarnContext(ctx, "email challenge already verified", "user_id", clm.UserID, "challenge_id", ch.ID)
		return nil, goerror.NewBusiness("no pending email code, request a new one", goerror.CodeNotFound)
	}

	attempts, err := s.repoDB.ReserveEmailChallengeAttempt(ctx, ch.ID, s.maxAttempts())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "email challenge attempts exhausted", "user_id", clm.UserID, "challenge_id", ch.ID, "attempts", ch.Attempts)
		return nil, goerror.NewTooManyRequest("too many attempts, request a new code", 0)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reserve email challenge attempt", "user_id", clm.UserID, "challenge_id", ch.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if _, err := s.verifier.Verify(ctx, vusecase.VerifyInput{
		Email:  ch.Email,
		Code:   in.Code,
		Token:  ch.OTPHash,
		UserID: clm.UserID,
		Source: ventity.SourceTwoFactor,
	}); err != nil {
		s.settleFailedAttempt(ctx, ch, attempts, err)
		return nil, err
	}

	if err := s.repoDB.MarkEmailChallengeVerified(ctx, ch.ID, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark email challenge verified", "user_id", clm.UserID, "challenge_id", ch.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(clm.UserID, clm.UserEmail, entity.AMRMFA, entity.AMROTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate elevated token", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ElevatedOutput{AccessToken: token}, nil
}

// settleFailedAttempt keeps the reserved attempt when the user caused the
// rejection and gives it back when the verifier failed on its own.
func (s *Usecase) settleFailedAttempt(ctx context.Context, ch *entity.EmailChallenge, attempts int32, verr error) {
	var gerr *goerror.Error
	if errors.As(verr, &gerr) && gerr.Type() != goerror.TypeServer {
		slog.WarnContext(ctx, "email challenge rejected", "user_id", ch.UserID, "challenge_id", ch.ID, "attempts", attempts)
		return
	}

	if err := s.repoDB.RefundEmailChallengeAttempt(ctx, ch.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo refund email challenge attempt", "challenge_id", ch.ID, "error", err)
	}
}
