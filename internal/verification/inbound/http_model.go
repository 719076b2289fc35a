package inbound

import "time"

type SendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SendOTPResponse struct {
	Success   bool       `json:"success"`
	OTPHash   string     `json:"otpHash,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	OTPHash string `json:"otpHash"`
}

type VerifyOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
