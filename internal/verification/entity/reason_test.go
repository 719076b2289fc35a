package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fursurecare/otpservice/internal/pkg/otp"
)

func TestReasonOf(t *testing.T) {
	tests := []struct {
		err         error
		want        RejectReason
		clientFault bool
	}{
		{err: nil, want: RejectReasonNone},
		{err: otp.ErrMalformedCode, want: RejectReasonMalformedCode, clientFault: true},
		{err: fmt.Errorf("wrap: %w", otp.ErrInvalidToken), want: RejectReasonInvalidToken, clientFault: true},
		{err: otp.ErrIdentityMismatch, want: RejectReasonIdentityMismatch},
		{err: otp.ErrCodeMismatch, want: RejectReasonCodeMismatch},
		{err: otp.ErrExpired, want: RejectReasonExpired},
		{err: ErrReplayed, want: RejectReasonReplayed},
		{err: ErrSuperseded, want: RejectReasonSuperseded},
		{err: errors.New("redis down"), want: RejectReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			got := ReasonOf(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clientFault, got.IsClientFault())
		})
	}
}
