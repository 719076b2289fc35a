package inbound

import (
	"context"

	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/verification/usecase"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
}

// PublicEndpoints lists routes reachable without a bearer token.
var PublicEndpoints = []string{
	"POST /api/v1/verification/otp/send",
	"POST /api/v1/verification/otp/verify",
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/otp/send", end.SendOTP)
	r.POST("/api/v1/verification/otp/verify", end.VerifyOTP)
}
