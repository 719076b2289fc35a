package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/valueobject"
)

type RecordInput struct {
	EventID    string `validate:"required"`
	Kind       string `validate:"required,oneof=issued verified rejected dispatch_failed"`
	Email      string `validate:"required"`
	UserID     int64  `validate:"gte=0"`
	Reason     string
	Source     string
	OccurredAt time.Time `validate:"required"`
	Metadata   map[string]any
}

// Record stores one verification event. Redelivered events with an id that
// was already stored are acknowledged without touching the database.
func (s *Usecase) Record(ctx context.Context, in RecordInput) error {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ev := entity.VerificationEvent{
		ID:            int64(s.uid.Generate()),
		EventID:       in.EventID,
		Kind:          in.Kind,
		Email:         in.Email,
		UserID:        in.UserID,
		Reason:        in.Reason,
		Source:        in.Source,
		CorrelationID: instrument.GetCorrelationID(ctx),
		Metadata:      valueobject.FromEvent(in.Metadata),
		OccurredAt:    in.OccurredAt.UTC(),
		RecordedAt:    s.clock.Now().UTC(),
	}

	err := s.idemp.Exec(ctx, "audit:verification:"+in.EventID, func(ctx context.Context) error {
		return s.repoDB.InsertVerificationEvent(ctx, ev)
	}, idempotency.WithRetryFailed())

	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "verification event already recorded", "event_id", in.EventID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewServer(err)
	default:
		slog.ErrorContext(ctx, "failed to repo insert verification event", "event_id", in.EventID, "error", err)
		return goerror.NewServer(err)
	}
}
