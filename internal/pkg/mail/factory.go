package mail

import (
	"errors"
	"strings"
)

// ErrUnknownDriver is returned for an unsupported mail driver name.
var ErrUnknownDriver = errors.New("mail: unknown driver")

const (
	// DriverSMTP selects the net/smtp implementation.
	DriverSMTP = "smtp"
	// DriverGomail selects the gomail implementation.
	DriverGomail = "gomail"
)

// New builds a Mail for driver. An empty driver means smtp.
func New(driver string, cfg SMTPConfig) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSMTP:
		return NewSMTP(cfg)
	case DriverGomail:
		return NewGomail(cfg)
	default:
		return nil, ErrUnknownDriver
	}
}
