package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/audit/usecase"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/shared/event"
)

type mqUC interface {
	Record(ctx context.Context, in usecase.RecordInput) error
}

type MQHandler struct {
	uc   mqUC
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, messaging.HeaderCorrelationID); uid.IsUUID(cID) {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// VerificationEvent stores one published verification event. Undecodable or
// invalid payloads are acknowledged and dropped so they are not redelivered.
func (h *MQHandler) VerificationEvent(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "VerificationEvent")
	defer span.End()

	body := msg.Body()

	var payload event.VerificationMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of verification event", "msg_body", string(body), "error", err)
		return nil
	}

	err := h.uc.Record(ctx, usecase.RecordInput{
		EventID:    payload.ID,
		Kind:       payload.Kind,
		Email:      payload.Email,
		UserID:     payload.UserID,
		Reason:     payload.Reason,
		Source:     payload.Source,
		OccurredAt: payload.OccurredAt,
		Metadata: map[string]any{
			"message_id": msg.ID(),
			"topic":      msg.Topic(),
		},
	})
	if err == nil {
		return nil
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() == goerror.TypeValidation {
		slog.WarnContext(ctx, "dropping invalid verification event", "msg_body", string(body), "error", err)
		return nil
	}

	slog.ErrorContext(ctx, "failed to consume verification event", "event_id", payload.ID, "error", err)
	return err
}
