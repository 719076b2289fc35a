package entity

import (
	"errors"

	"github.com/fursurecare/otpservice/internal/pkg/otp"
)

// ErrReplayed means the token was already accepted once.
var ErrReplayed = errors.New("verification: token already used")

// ErrSuperseded means a newer token was issued for the same identity.
var ErrSuperseded = errors.New("verification: token superseded")

// RejectReason is the internal cause of a failed verification. It is logged
// and published, never returned to the client.
type RejectReason string

const (
	RejectReasonNone             RejectReason = ""
	RejectReasonMalformedCode    RejectReason = "malformed_code"
	RejectReasonInvalidToken     RejectReason = "invalid_token"
	RejectReasonIdentityMismatch RejectReason = "identity_mismatch"
	RejectReasonCodeMismatch     RejectReason = "code_mismatch"
	RejectReasonExpired          RejectReason = "expired"
	RejectReasonReplayed         RejectReason = "replayed"
	RejectReasonSuperseded       RejectReason = "superseded"
	RejectReasonUnknown          RejectReason = "unknown"
)

func (r RejectReason) String() string {
	return string(r)
}

// ReasonOf classifies a verification error.
func ReasonOf(err error) RejectReason {
	switch {
	case err == nil:
		return RejectReasonNone
	case errors.Is(err, otp.ErrMalformedCode):
		return RejectReasonMalformedCode
	case errors.Is(err, otp.ErrInvalidToken):
		return RejectReasonInvalidToken
	case errors.Is(err, otp.ErrIdentityMismatch):
		return RejectReasonIdentityMismatch
	case errors.Is(err, otp.ErrCodeMismatch):
		return RejectReasonCodeMismatch
	case errors.Is(err, otp.ErrExpired):
		return RejectReasonExpired
	case errors.Is(err, ErrReplayed):
		return RejectReasonReplayed
	case errors.Is(err, ErrSuperseded):
		return RejectReasonSuperseded
	default:
		return RejectReasonUnknown
	}
}

// IsClientFault reports whether the reason maps to a 400 rather than a 401.
func (r RejectReason) IsClientFault() bool {
	return r == RejectReasonMalformedCode || r == RejectReasonInvalidToken
}
