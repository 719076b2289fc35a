package inbound

import "time"

type EmailSendRequest struct {
	Name string `json:"name"`
}

type EmailSendResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (EmailSendResponse) Message() string {
	return "verification code sent to your email"
}

type CodeRequest struct {
	Code string `json:"code"`
}

type ElevatedResponse struct {
	AccessToken string `json:"access_token"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type StatusResponse struct {
	EmailOTP              bool `json:"email_otp"`
	TOTPEnabled           bool `json:"totp_enabled"`
	PendingEmailChallenge bool `json:"pending_email_challenge"`
}
