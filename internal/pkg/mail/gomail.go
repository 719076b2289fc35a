package mail

import (
	"context"
	"crypto/tls"

	"gopkg.in/gomail.v2"
)

// Gomail is a Mail implementation backed by gopkg.in/gomail.v2.
type Gomail struct {
	dialer      *gomail.Dialer
	defaultFrom string
}

// NewGomail constructs a gomail sender from the same settings as SMTP.
func NewGomail(cfg SMTPConfig) (*Gomail, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &Gomail{dialer: d, defaultFrom: cfg.From}, nil
}

// Send delivers a message through a fresh gomail connection.
func (g *Gomail) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := g.compose(msg)
	if err != nil {
		return err
	}

	return g.dialer.DialAndSend(m)
}

func (g *Gomail) compose(msg Message) (*gomail.Message, error) {
	from, err := envelope(msg, g.defaultFrom)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", headerValue(msg.Subject))
	for _, kv := range sortedHeaders(msg.Headers) {
		m.SetHeader(kv[0], kv[1])
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	return m, nil
}

// Close is a no-op; every Send dials its own connection.
func (g *Gomail) Close() error {
	return nil
}
