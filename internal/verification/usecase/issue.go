package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

const (
	msgIssueFailed    = "failed to issue verification code"
	msgDispatchFailed = "failed to deliver verification code"
)

type IssueInput struct {
	Email string `validate:"required,email,keysafe,max=254"`
	Name  string `validate:"max=100"`

	// UserID and Source are set by internal callers and only travel with events.
	UserID int64
	Source entity.Source
}

type IssueOutput struct {
	Token     string
	ExpiresAt time.Time
}

func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Name = sanitizeName(in.Name)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acquired, remaining, err := s.repoCache.AcquireCooldown(ctx, in.Email, s.cooldown())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo acquire cooldown", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgIssueFailed, goerror.CodeInternal)
	}
	if !acquired {
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 1 {
			secs = 1
		}
		slog.WarnContext(ctx, "verification code requested during cooldown", "email", in.Email, "retry_after_seconds", secs)
		return nil, goerror.NewTooManyRequest(
			fmt.Sprintf("please wait %d seconds before requesting another code", secs),
			time.Duration(secs)*time.Second,
		)
	}

	out, err := s.issue(ctx, in)
	if err != nil {
		//nolint:errcheck // logged inside
		s.ReleaseCooldown(ctx, in.Email)
		return nil, err
	}

	addCounter(ctx, s.issuedCounter)
	s.publish(ctx, entity.Event{Kind: entity.EventKindIssued, Email: in.Email, UserID: in.UserID, Source: in.Source})

	return out, nil
}

// issue runs with the cooldown slot held. Any error it returns releases the slot.
func (s *Usecase) issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgIssueFailed, goerror.CodeInternal)
	}

	issuedAt := s.clock.Now()
	window := s.codec.Window()

	token, err := s.codec.Seal(in.Email, code, issuedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal verification token", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgIssueFailed, goerror.CodeInternal)
	}

	// The pointer moves before delivery so a code that reaches the inbox is
	// never rejected as superseded.
	if s.singleActiveToken() {
		if err := s.repoCache.SetLatestToken(ctx, in.Email, s.fingerprint.Fingerprint(token), window); err != nil {
			slog.ErrorContext(ctx, "failed to record latest verification token", "email", in.Email, "error", err)
			return nil, goerror.NewServerMsg(err, msgIssueFailed, goerror.CodeInternal)
		}
	}

	err = s.repoEmail.SendOTP(ctx, entity.OTPMail{
		To:            in.Email,
		Name:          in.Name,
		Code:          code,
		ExpiryMinutes: int(window / time.Minute),
	})
	if errors.Is(err, entity.ErrComposeMail) {
		slog.ErrorContext(ctx, "failed to compose verification email", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgIssueFailed, goerror.CodeInternal)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo send verification email", "email", in.Email, "error", err)
		s.publish(ctx, entity.Event{Kind: entity.EventKindDispatchFailed, Email: in.Email, UserID: in.UserID, Source: in.Source})
		return nil, goerror.NewServerMsg(err, msgDispatchFailed, goerror.CodeUnavailable)
	}

	return &IssueOutput{Token: token, ExpiresAt: issuedAt.Add(window)}, nil
}

// ReleaseCooldown frees the resend slot for email. Callers that fail after a
// successful Issue use it so the user can ask for a new code right away.
func (s *Usecase) ReleaseCooldown(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "ReleaseCooldown")
	defer span.End()

	email = normalizeEmail(email)
	if err := s.repoCache.ReleaseCooldown(ctx, email); err != nil {
		slog.ErrorContext(ctx, "failed to repo release cooldown", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
