package notify

import (
	"context"
	"fmt"
	"time"

	"sun_transit/internal/models"

	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP delivery settings. Password is normally an
// app-specific password for the sender's account.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       string
	Timeout  time.Duration
}

// Email sends each match as a plain-text message over authenticated SMTP.
type Email struct {
	from   string
	to     string
	client *mail.Client
}

// NewEmail validates the settings and prepares an SMTP client. No connection
// is made until the first notification.
func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("sender and recipient addresses are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.From),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Email{from: cfg.From, to: cfg.To, client: client}, nil
}

// Notify implements Notifier.
func (e *Email) Notify(ctx context.Context, m models.TransitMatch) error {
	msg, err := e.message(m)
	if err != nil {
		return err
	}
	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send transit email: %w", err)
	}
	return nil
}

func (e *Email) message(m models.TransitMatch) (*mail.Msg, error) {
	body, err := Body(m)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(e.to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Close implements Notifier. Each message uses its own connection, so there
// is nothing left open between notifications.
func (e *Email) Close() error {
	return nil
}
