package inbound

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/fursurecare/otpservice/internal/pkg/goerror"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/verification/usecase"
)

// HTTPEndpoint exposes the public email verification API. Responses keep the
// flat {success, ...} shape instead of the router envelope.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a verification code to an email address.
// @Summary Send verification code
// @Description Emails a 6-digit code and returns the opaque token needed to verify it.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send payload"
// @Success 200 {object} SendOTPResponse "Code sent"
// @Failure 400 {object} SendOTPResponse "Invalid request body"
// @Failure 422 {object} SendOTPResponse "Validation error"
// @Failure 429 {object} SendOTPResponse "Cooldown active"
// @Failure 502 {object} SendOTPResponse "Email delivery failed"
// @Failure 500 {object} SendOTPResponse "Internal server error"
// @Router /api/v1/verification/otp/send [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		status, msg := describe(err)
		return router.Plain{Status: status, Body: SendOTPResponse{Error: msg}, Err: err}, nil
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		status, msg := describe(err)
		return router.Plain{Status: status, Body: SendOTPResponse{Error: msg}, Err: err}, nil
	}

	return router.Plain{
		Status: http.StatusOK,
		Body: SendOTPResponse{
			Success:   true,
			OTPHash:   resp.Token,
			ExpiresAt: &resp.ExpiresAt,
		},
	}, nil
}

// VerifyOTP checks a code against a previously issued token.
// @Summary Verify code
// @Description Accepts the code once per token. Mismatch, expiry and reuse share one generic 401.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify payload"
// @Success 200 {object} VerifyOTPResponse "Code accepted"
// @Failure 400 {object} VerifyOTPResponse "Malformed input or token"
// @Failure 401 {object} VerifyOTPResponse "Invalid or expired code"
// @Failure 500 {object} VerifyOTPResponse "Internal server error"
// @Router /api/v1/verification/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		status, msg := describe(err)
		return router.Plain{Status: status, Body: VerifyOTPResponse{Error: msg}, Err: err}, nil
	}

	if _, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Email: req.Email,
		Code:  req.Code,
		Token: req.OTPHash,
	}); err != nil {
		status, msg := describe(err)
		return router.Plain{Status: status, Body: VerifyOTPResponse{Error: msg}, Err: err}, nil
	}

	return router.Plain{
		Status: http.StatusOK,
		Body:   VerifyOTPResponse{Success: true, Message: "email verified"},
	}, nil
}

// describe turns err into the status and the single client-facing message.
// Validation field messages are joined in field order.
func describe(err error) (int, string) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		return http.StatusInternalServerError, "Internal server error"
	}

	fields := gerr.Fields()
	var verr interface{ Values() map[string]string }
	if errors.As(err, &verr) {
		fields = verr.Values()
	}
	if len(fields) == 0 {
		return gerr.StatusCode(), gerr.Msg()
	}

	keys := lo.Keys(fields)
	slices.Sort(keys)

	return gerr.StatusCode(), strings.Join(lo.Map(keys, func(k string, _ int) string { return fields[k] }), "; ")
}
