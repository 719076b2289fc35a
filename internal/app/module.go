package app

import (
	"log/slog"
	"os"

	"github.com/fursurecare/otpservice/internal/audit"
	"github.com/fursurecare/otpservice/internal/twofactor"
	"github.com/fursurecare/otpservice/internal/verification"
)

func (a *App) initModules() {
	vuc, err := verification.New(verification.Dependency{
		CacheConn:   a.cacheConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Messaging:   a.messaging,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		UUID:        a.uuid,
		Fingerprint: a.fingerprint,
		Sealer:      a.sealer,
		Clock:       a.clock,
		Validator:   a.validator,
	})
	if err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.twofactor.enabled") {
		if err := twofactor.New(twofactor.Dependency{
			DBConn:     a.dbConn,
			Verifier:   vuc,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Totp:       a.totp,
			JWT:        a.jwt,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.audit.enabled") {
		if err := audit.New(audit.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Validator:   a.validator,
			Storage:     a.storage,
		}); err != nil {
			slog.Error("failed to init module audit", "error", err)
			os.Exit(1)
		}
	}
}
