package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/hash"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/mail"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/ratelimit"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/sealer"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
)

// App owns every long-lived dependency of the service and its lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine   *goroutine.Manager
	validator   validator.Validator
	clock       clock.Clocker
	fingerprint hash.Fingerprinter
	uid         uid.NumberID
	uuid        uid.StringID
	sealer      sealer.Sealer
	totp        otp.Authenticator
	jwt         jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	limiter    *ratelimit.Limiter
	router     *router.Router
	httpServer *http.Server

	// released by shutdown in reverse order
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// onClose registers fn to run at shutdown. Call it right after a resource is
// acquired so teardown mirrors startup.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// New builds the whole service from config. Any startup failure is logged
// and exits the process.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()

	return app
}
