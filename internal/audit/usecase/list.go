package usecase

import (
	"context"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
)

type ListInput struct {
	Limit  int32 `validate:"omitempty,gte=1,lte=100"`
	Offset int32 `validate:"omitempty,gte=0"`
}

type ListOutput struct {
	Events []entity.VerificationEvent
	Total  int64
}

// List returns the caller's own verification events, newest first.
func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	events, total, err := s.repoDB.ListVerificationEvents(ctx, entity.VerificationEventFilter{
		Email:  clm.UserEmail,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list verification events", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{Events: events, Total: total}, nil
}
