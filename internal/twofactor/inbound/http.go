package inbound

import (
	"context"

	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/twofactor/usecase"
)

type uc interface {
	EmailSend(ctx context.Context, in usecase.EmailSendInput) (*usecase.EmailSendOutput, error)
	EmailVerify(ctx context.Context, in usecase.EmailVerifyInput) (*usecase.ElevatedOutput, error)

	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error
	TOTPVerify(ctx context.Context, in usecase.TOTPVerifyInput) (*usecase.ElevatedOutput, error)

	Status(ctx context.Context) (*usecase.StatusOutput, error)
}

// RegisterHTTPEndpoint mounts the second-factor routes. All of them need a
// bearer token.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/twofactor/email/send", end.EmailSend)
	r.POST("/api/v1/twofactor/email/verify", end.EmailVerify)
	//
	r.POST("/api/v1/twofactor/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/twofactor/totp/confirm", end.TOTPConfirm)
	r.POST("/api/v1/twofactor/totp/verify", end.TOTPVerify)
	//
	r.GET("/api/v1/twofactor/status", end.Status)
}
