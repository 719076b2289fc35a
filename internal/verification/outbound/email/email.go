package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"go.opentelemetry.io/otel/codes"

	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/mail"
	"github.com/fursurecare/otpservice/internal/verification/entity"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTpl = htmltemplate.Must(htmltemplate.New("otp.html").Option("missingkey=zero").ParseFS(templateFS, "templates/otp.html"))
	textTpl = texttemplate.Must(texttemplate.New("otp.txt").Option("missingkey=zero").ParseFS(templateFS, "templates/otp.txt"))
)

type Config struct {
	AppName string
	Subject string
}

type Mail struct {
	client mail.Mail
	cfg    Config
	ins    instrument.Instrumentation
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func New(client mail.Mail, cfg Config, ins instrument.Instrumentation) *Mail {
	if cfg.AppName == "" {
		cfg.AppName = "FurSureCare"
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your " + cfg.AppName + " verification code"
	}
	return &Mail{client: client, cfg: cfg, ins: ins, html: htmlTpl, text: textTpl}
}

// SendOTP renders the code message and dispatches it synchronously.
func (m *Mail) SendOTP(ctx context.Context, in entity.OTPMail) (err error) {
	ctx, span := m.ins.Tracer("verification.outbound.email").Start(ctx, "SendOTP")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	msg, err := m.compose(in)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrComposeMail, err)
	}

	return m.client.Send(ctx, msg)
}

func (m *Mail) compose(in entity.OTPMail) (mail.Message, error) {
	data := map[string]any{
		"AppName":       m.cfg.AppName,
		"Name":          in.Name,
		"Code":          in.Code,
		"ExpiryMinutes": in.ExpiryMinutes,
	}

	var html, text bytes.Buffer
	if err := m.html.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}
	if err := m.text.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{in.To},
		Subject:  m.cfg.Subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
		Headers: map[string]string{
			"Auto-Submitted":           "auto-generated",
			"X-Auto-Response-Suppress": "All",
		},
	}, nil
}
