package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
	ventity "github.com/fursurecare/otpservice/internal/verification/entity"
	vusecase "github.com/fursurecare/otpservice/internal/verification/usecase"
)

type EmailSendInput struct {
	Name string `validate:"max=100"`
}

type EmailSendOutput struct {
	ExpiresAt time.Time
}

// EmailSend emails a code to the caller and keeps the token server-side,
// replacing any earlier challenge.
func (s *Usecase) EmailSend(ctx context.Context, in EmailSendInput) (*EmailSendOutput, error) {
	ctx, span := s.startSpan(ctx, "EmailSend")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	issued, err := s.verifier.Issue(ctx, vusecase.IssueInput{
		Email:  clm.UserEmail,
		Name:   in.Name,
		UserID: clm.UserID,
		Source: ventity.SourceTwoFactor,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.UpsertEmailChallenge(ctx, entity.EmailChallenge{
		ID:        int64(s.uid.Generate()),
		UserID:    clm.UserID,
		Email:     clm.UserEmail,
		OTPHash:   issued.Token,
		CreatedAt: s.clock.Now(),
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert email challenge", "user_id", clm.UserID, "error", err)
		// the sent code can never be checked, so let the user ask again now
		//nolint:errcheck // logged by the verifier
		s.verifier.ReleaseCooldown(ctx, clm.UserEmail)
		return nil, goerror.NewServer(err)
	}

	return &EmailSendOutput{ExpiresAt: issued.ExpiresAt}, nil
}
