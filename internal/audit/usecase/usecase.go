package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fursurecare/otpservice/internal/audit/entity"
	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
)

type repoDB interface {
	InsertVerificationEvent(ctx context.Context, ev entity.VerificationEvent) error
	ListVerificationEvents(ctx context.Context, f entity.VerificationEventFilter) ([]entity.VerificationEvent, int64, error)
}

type Usecase struct {
	repoDB    repoDB
	idemp     idempotency.Idempotency
	storage   storage.Storage
	uid       uid.NumberID
	clock     clock.Clocker
	cfg       config.Config
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Idempotency idempotency.Idempotency
	// Storage is optional. Export fails with 502 when it is nil.
	Storage    storage.Storage
	UID        uid.NumberID
	Clock      clock.Clocker
	Config     config.Config
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		idemp:     dep.Idempotency,
		storage:   dep.Storage,
		uid:       dep.UID,
		clock:     dep.Clock,
		cfg:       dep.Config,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 || clm.UserEmail == "" {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) exportURLTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.audit.export_url_minutes"); d > 0 {
		return d
	}
	return 15 * time.Minute
}
