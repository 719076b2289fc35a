package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

const (
	msgRejected      = "invalid or expired code"
	msgMalformedCode = "code must be exactly 6 digits"
	msgInvalidToken  = "invalid verification token"
	msgVerifyFailed  = "failed to verify code"
)

type VerifyInput struct {
	Email string `validate:"required"`
	Code  string `validate:"required"`
	Token string `validate:"required"`

	UserID int64
	Source entity.Source
}

type VerifyOutput struct {
	Email    string
	IssuedAt time.Time
}

// Verify accepts a code at most once per token. Identity, code, expiry,
// replay and superseded failures all surface as the same 401.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidFormat("email, code and otpHash are required")
	}

	now := s.clock.Now()

	claims, err := s.codec.Verify(in.Email, in.Code, in.Token, now)
	if err != nil {
		return nil, s.reject(ctx, in, err)
	}

	fp := s.fingerprint.Fingerprint(in.Token)

	if s.singleActiveToken() {
		latest, err := s.repoCache.GetLatestToken(ctx, claims.Identity)
		if err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get latest token", "email", in.Email, "error", err)
			return nil, goerror.NewServerMsg(err, msgVerifyFailed, goerror.CodeInternal)
		}
		if err == nil && latest != fp {
			return nil, s.reject(ctx, in, entity.ErrSuperseded)
		}
	}

	ttl := max(claims.ExpiresAt.Sub(now), time.Second)
	first, err := s.repoCache.MarkConsumed(ctx, fp, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark token consumed", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgVerifyFailed, goerror.CodeInternal)
	}
	if !first {
		return nil, s.reject(ctx, in, entity.ErrReplayed)
	}

	addCounter(ctx, s.verifiedCounter)
	s.publish(ctx, entity.Event{Kind: entity.EventKindVerified, Email: claims.Identity, UserID: in.UserID, Source: in.Source})

	return &VerifyOutput{Email: claims.Identity, IssuedAt: claims.IssuedAt}, nil
}

func (s *Usecase) reject(ctx context.Context, in VerifyInput, cause error) error {
	reason := entity.ReasonOf(cause)

	slog.WarnContext(ctx, "verification rejected", "email", in.Email, "reason", reason.String())
	addCounter(ctx, s.rejectedCounter, metric.WithAttributes(attribute.String("reason", reason.String())))
	s.publish(ctx, entity.Event{Kind: entity.EventKindRejected, Email: in.Email, UserID: in.UserID, Reason: reason, Source: in.Source})

	if !reason.IsClientFault() {
		return goerror.NewBusinessWrap(cause, msgRejected, goerror.CodeUnauthorized)
	}
	if reason == entity.RejectReasonMalformedCode {
		return goerror.NewBusinessWrap(cause, msgMalformedCode, goerror.CodeInvalidFormat)
	}
	return goerror.NewBusinessWrap(cause, msgInvalidToken, goerror.CodeInvalidFormat)
}
