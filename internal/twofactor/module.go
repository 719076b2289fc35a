package twofactor

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/twofactor/inbound"
	"github.com/fursurecare/otpservice/internal/twofactor/outbound/db"
	"github.com/fursurecare/otpservice/internal/twofactor/usecase"
	vusecase "github.com/fursurecare/otpservice/internal/verification/usecase"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Verifier   *vusecase.Usecase          `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Totp       otp.Authenticator          `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Verifier:   dep.Verifier,
		Totp:       dep.Totp,
		JWT:        dep.JWT,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Config:     dep.Config,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
