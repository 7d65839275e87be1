package email

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"readiness/internal/platform/config"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	FromName    string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// New picks exactly one provider: Resend when an API key is present, SMTP
// when a host is present, otherwise a mailer that only logs.
func New(cfg config.Config) Mailer {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResend(cfg.ResendBaseURL, cfg.ResendAPIKey, &http.Client{Timeout: 30 * time.Second})
	case cfg.SMTPHost != "":
		return &smtpMailer{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			user:     cfg.SMTPUser,
			password: cfg.SMTPPassword,
			useTLS:   cfg.SMTPUseTLS,
		}
	default:
		return noopMailer{}
	}
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, msg Message) error {
	slog.Info("email provider not configured, skipping send",
		"to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

func (noopMailer) Provider() string { return "noop" }
