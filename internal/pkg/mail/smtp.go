package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
)

// SMTP sends mail with net/smtp over a context-bound connection.
// STARTTLS is used whenever the server offers it.
type SMTP struct {
	host        string
	addr        string
	defaultFrom string
	auth        smtp.Auth
}

// SMTPConfig configures both SMTP drivers.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// NewSMTP validates cfg and returns an SMTP sender. Auth is enabled only when
// both username and password are set.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		host:        cfg.Host,
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		defaultFrom: cfg.From,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return s, nil
}

// Send dials the server, honoring ctx for the dial and as the I/O deadline.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	from, err := envelope(msg, s.defaultFrom)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sender := from
	if a, err := netmail.ParseAddress(from); err == nil {
		sender = a.Address
	}

	raw, err := compose(from, msg)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", s.addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			conn.Close()
			return err
		}
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	return s.deliver(c, sender, msg.To, raw)
}

func (s *SMTP) deliver(c *smtp.Client, sender string, to []string, raw []byte) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := c.Mail(sender); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

// Close is a no-op; every Send dials its own connection.
func (s *SMTP) Close() error {
	return nil
}

// compose renders the RFC 5322 message. A message with both bodies becomes
// multipart/alternative with the plain part first.
func compose(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", headerValue(strings.Join(msg.To, ", ")))
	fmt.Fprintf(&buf, "Subject: %s\r\n", headerValue(msg.Subject))
	for _, kv := range sortedHeaders(msg.Headers) {
		fmt.Fprintf(&buf, "%s: %s\r\n", kv[0], kv[1])
	}
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" || msg.TextBody == "" {
		ct, body := "text/plain; charset=UTF-8", msg.TextBody
		if msg.HTMLBody != "" {
			ct, body = "text/html; charset=UTF-8", msg.HTMLBody
		}
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n%s", ct, body)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	for _, p := range [][2]string{{"text/plain; charset=UTF-8", msg.TextBody}, {"text/html; charset=UTF-8", msg.HTMLBody}} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p[0]}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p[1])); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
	buf.Write(parts.Bytes())

	return buf.Bytes(), nil
}
