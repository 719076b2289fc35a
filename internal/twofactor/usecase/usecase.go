package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/twofactor/entity"
	vusecase "github.com/fursurecare/otpservice/internal/verification/usecase"
)

const defaultMaxAttempts int32 = 5

type repoDB interface {
	GetEmailChallenge(ctx context.Context, userID int64) (*entity.EmailChallenge, error)
	UpsertEmailChallenge(ctx context.Context, c entity.EmailChallenge) error
	ReserveEmailChallengeAttempt(ctx context.Context, id int64, maxAttempts int32) (int32, error)
	RefundEmailChallengeAttempt(ctx context.Context, id int64) error
	MarkEmailChallengeVerified(ctx context.Context, id int64, at time.Time) error

	GetTOTPFactor(ctx context.Context, userID int64) (*entity.TOTPFactor, error)
	UpsertPendingTOTPFactor(ctx context.Context, f entity.TOTPFactor) error
	MarkTOTPFactorVerified(ctx context.Context, id int64, at time.Time) error
	TouchTOTPFactor(ctx context.Context, id int64, at time.Time) error
}

// verifier is the in-process verification usecase.
type verifier interface {
	Issue(ctx context.Context, in vusecase.IssueInput) (*vusecase.IssueOutput, error)
	Verify(ctx context.Context, in vusecase.VerifyInput) (*vusecase.VerifyOutput, error)
	ReleaseCooldown(ctx context.Context, email string) error
}

type Usecase struct {
	repoDB    repoDB
	verifier  verifier
	totp      otp.Authenticator
	jwt       jwt.JWT
	uid       uid.NumberID
	clock     clock.Clocker
	cfg       config.Config
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Verifier   verifier
	Totp       otp.Authenticator
	JWT        jwt.JWT
	UID        uid.NumberID
	Clock      clock.Clocker
	Config     config.Config
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		verifier:  dep.Verifier,
		totp:      dep.Totp,
		jwt:       dep.JWT,
		uid:       dep.UID,
		clock:     dep.Clock,
		cfg:       dep.Config,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int32 {
	if n := s.cfg.GetInt32("modules.twofactor.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

type ElevatedOutput struct {
	AccessToken string
}
