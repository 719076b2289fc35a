package mq

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/shared/event"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishEvent sends ev keyed by email so one identity's events stay ordered
// on partitioned brokers.
func (m *Messaging) PublishEvent(ctx context.Context, ev entity.Event) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishEvent")
	defer span.End()

	msg, err := messaging.JSON(event.VerificationMessage{
		ID:         ev.ID,
		Kind:       ev.Kind.String(),
		Email:      ev.Email,
		UserID:     ev.UserID,
		Reason:     ev.Reason.String(),
		Source:     string(ev.Source),
		OccurredAt: ev.OccurredAt,
	}, ev.Email, instrument.GetCorrelationID(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, event.VerificationDestination, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
