package entity

import "errors"

// ErrComposeMail means the message could not be rendered, so nothing was sent.
var ErrComposeMail = errors.New("verification: compose mail")

// OTPMail is what the email channel needs to render a code message.
type OTPMail struct {
	To            string
	Name          string
	Code          string
	ExpiryMinutes int
}
