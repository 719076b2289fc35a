package mail

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
)

var (
	// ErrSMTPHostPortRequired is returned when Host or Port is missing.
	ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To is empty.
	ErrSMTPNoRecipients = errors.New("mail: no recipients")
	// ErrSMTPNoSender is returned when neither the message nor the config has a sender.
	ErrSMTPNoSender = errors.New("mail: no sender")
)

// Message is a transactional email to one or more recipients. Text and HTML
// bodies are sent as alternatives when both are set.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Headers are extra headers such as Auto-Submitted. CR and LF are stripped.
	Headers map[string]string
}

// Mail delivers messages through a provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// envelope resolves the sender and checks there is someone to deliver to.
func envelope(msg Message, defaultFrom string) (from string, err error) {
	if len(msg.To) == 0 {
		return "", ErrSMTPNoRecipients
	}

	from = msg.From
	if from == "" {
		from = defaultFrom
	}
	if from == "" {
		return "", ErrSMTPNoSender
	}

	return headerValue(from), nil
}

// sortedHeaders returns the extra headers in a stable order.
func sortedHeaders(h map[string]string) [][2]string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{headerValue(k), headerValue(h[k])})
	}
	return out
}

// headerValue drops CR and LF so user supplied text cannot start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
