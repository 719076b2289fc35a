package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fursurecare/otpservice/internal/audit/inbound"
	"github.com/fursurecare/otpservice/internal/audit/outbound/db"
	"github.com/fursurecare/otpservice/internal/audit/usecase"
	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
)

type Dependency struct {
	// Ctx bounds the MQ consumer. When nil the consumer is not started.
	Ctx         context.Context
	DBConn      *pgxpool.Pool              `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	// Storage enables the export endpoint when set.
	Storage storage.Storage
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		Idempotency: dep.Idempotency,
		Storage:     dep.Storage,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Config:      dep.Config,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Storage != nil)

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
