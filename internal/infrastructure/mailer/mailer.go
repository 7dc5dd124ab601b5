// Package mailer delivers the response notice over SMTP with the generated
// certificate and the response attachments.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"municipal-portal/internal/domain/submission"

	"github.com/wneessen/go-mail"
)

var ErrNotConfigured = errors.New("smtp not configured")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (c Config) Enabled() bool { return c.Host != "" && c.From != "" }

type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []string // file paths
}

type Mailer struct {
	cfg    Config
	logger *slog.Logger
	send   func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg Config, logger *slog.Logger) (*Mailer, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{cfg: cfg, logger: logger}
	m.send = m.dialAndSend
	return m, nil
}

// Notify makes one delivery attempt and returns the Message-ID it stamped.
// Every failure wraps submission.ErrDelivery.
func (m *Mailer) Notify(ctx context.Context, msg Message) (string, error) {
	built, err := m.build(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", submission.ErrDelivery, err)
	}
	messageID := ""
	if ids := built.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}

	start := time.Now()
	if err := m.send(ctx, built); err != nil {
		m.logger.Warn("mail delivery failed",
			slog.String("to", msg.To), slog.Any("error", err), slog.Duration("took", time.Since(start)))
		return "", fmt.Errorf("%w: %w", submission.ErrDelivery, err)
	}
	m.logger.Info("mail delivered",
		slog.String("to", msg.To), slog.String("message_id", messageID), slog.Duration("took", time.Since(start)))
	return messageID, nil
}

func (m *Mailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.cfg.From, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetMessageID()
	out.SetDate()

	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, path := range msg.Attachments {
		out.AttachFile(path, mail.WithFileName(filepath.Base(path)))
	}
	return out, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
