package inbound

import (
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/twofactor/usecase"
)

// HTTPEndpoint exposes the second-factor API for signed-in users.
type HTTPEndpoint struct {
	uc uc
}

// EmailSend emails a second-factor code to the signed-in user.
// @Summary Send email second-factor code
// @Description Emails a 6-digit code to the account email. The token stays on the server.
// @Tags TwoFactor
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body EmailSendRequest false "Optional greeting name"
// @Success 200 {object} router.successResponse{data=EmailSendResponse} "Code sent"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Failure 502 {object} router.errorResponse "Email delivery failed"
// @Router /api/v1/twofactor/email/send [post]
func (h *HTTPEndpoint) EmailSend(r *router.Request) (any, error) {
	var req EmailSendRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EmailSend(r.Context(), usecase.EmailSendInput{Name: req.Name})
	if err != nil {
		return nil, err
	}

	return EmailSendResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// EmailVerify checks the emailed code and returns an elevated access token.
// @Summary Verify email second-factor code
// @Tags TwoFactor
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CodeRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=ElevatedResponse} "Verified"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 404 {object} router.errorResponse "No pending code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/twofactor/email/verify [post]
func (h *HTTPEndpoint) EmailVerify(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EmailVerify(r.Context(), usecase.EmailVerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return ElevatedResponse{AccessToken: resp.AccessToken}, nil
}

// TOTPSetup starts authenticator enrollment.
// @Summary Start authenticator setup
// @Description Returns a new TOTP secret and otpauth URI. The factor stays pending until confirmed.
// @Tags TwoFactor
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse} "Pending factor created"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Authenticator already enabled"
// @Router /api/v1/twofactor/totp/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{Secret: resp.Secret, URI: resp.URI}, nil
}

// TOTPConfirm enables the pending authenticator.
// @Summary Confirm authenticator setup
// @Tags TwoFactor
// @Security BearerAuth
// @Accept json
// @Param request body CodeRequest true "Code payload"
// @Success 204 "Authenticator enabled"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "Setup not started"
// @Failure 409 {object} router.errorResponse "Authenticator already enabled"
// @Router /api/v1/twofactor/totp/confirm [post]
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return nil, nil
}

// TOTPVerify checks an authenticator code and returns an elevated access token.
// @Summary Verify authenticator code
// @Tags TwoFactor
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CodeRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=ElevatedResponse} "Verified"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "Authenticator not enabled"
// @Router /api/v1/twofactor/totp/verify [post]
func (h *HTTPEndpoint) TOTPVerify(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.TOTPVerify(r.Context(), usecase.TOTPVerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return ElevatedResponse{AccessToken: resp.AccessToken}, nil
}

// Status reports which second factors the user has.
// @Summary Second-factor status
// @Tags TwoFactor
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StatusResponse} "Status"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/twofactor/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		EmailOTP:              resp.EmailOTP,
		TOTPEnabled:           resp.TOTPEnabled,
		PendingEmailChallenge: resp.PendingEmailChallenge,
	}, nil
}
