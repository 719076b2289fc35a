package inbound

import (
	"context"
	"log/slog"

	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/shared/event"
)

const defaultConsumerConcurrency = 4

// RegisterMQConsumer starts the verification event consumer on routine. It
// stops when ctx is canceled.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc mqUC,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	concurrency := cfg.GetInt("modules.audit.consumer_concurrency")
	if concurrency < 1 {
		concurrency = defaultConsumerConcurrency
	}

	routine.Go(ctx, "audit verification consumer", func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", event.VerificationConsumerAudit)
		return messenger.Consume(pCtx,
			event.VerificationDestination,
			h.VerificationEvent,
			messaging.WithGroup(event.VerificationConsumerAudit),
			messaging.WithAutoAck(true),
			messaging.WithConcurrency(concurrency),
			messaging.WithParam("start_offset", cfg.GetString("modules.audit.start_offset")),
		)
	})
}
