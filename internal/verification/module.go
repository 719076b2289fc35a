package verification

import (
	"github.com/redis/go-redis/v9"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/hash"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/mail"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/sealer"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/verification/inbound"
	"github.com/fursurecare/otpservice/internal/verification/outbound/cache"
	"github.com/fursurecare/otpservice/internal/verification/outbound/email"
	"github.com/fursurecare/otpservice/internal/verification/outbound/mq"
	"github.com/fursurecare/otpservice/internal/verification/usecase"
)

type Dependency struct {
	CacheConn   redis.UniversalClient      `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Fingerprint hash.Fingerprinter         `validate:"required"`
	Sealer      sealer.Sealer              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

// New wires the module, registers its public routes and returns the usecase
// so other modules can issue and verify codes in-process.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoCache: cache.New(dep.CacheConn, dep.Instrument),
		RepoEmail: email.New(dep.Mail, email.Config{
			AppName: dep.Config.GetString("app.name"),
			Subject: dep.Config.GetString("modules.verification.email_subject"),
		}, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Codec:         otp.NewTokenCodec(dep.Sealer, dep.Config.GetMinute("modules.verification.window_minutes")),
		Code:          otp.NewNumericCode(),
		Fingerprint:   dep.Fingerprint,
		Validator:     dep.Validator,
		Config:        dep.Config,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
