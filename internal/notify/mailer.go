package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/qepting91/pricewatch/internal/domain"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465
)

// MailerConfig holds the SMTP account. Mail is sent from the account to itself.
type MailerConfig struct {
	Host     string
	Port     int
	Address  string
	Password string
	Currency string
	Timeout  time.Duration
}

// Mailer delivers events over SMTP with implicit TLS.
type Mailer struct {
	cfg MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = DefaultSMTPHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg}
}

// Notify sends one message. Failures are logged and returned; nothing is retried.
func (m *Mailer) Notify(ctx context.Context, e domain.Event) error {
	msg := Compose(e, m.cfg.Currency)
	slog.Info("Sending notification", "kind", e.Kind, "url", e.Product.URL, "body", msg.Body)

	mm := mail.NewMsg()
	if err := mm.From(m.cfg.Address); err != nil {
		return fmt.Errorf("notify: sender address: %w", err)
	}
	if err := mm.To(m.cfg.Address); err != nil {
		return fmt.Errorf("notify: recipient address: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetDate()
	mm.SetBodyString(mail.TypeTextPlain, msg.Body)

	c, err := mail.NewClient(m.cfg.Host,
		mail.WithSSL(),
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Address),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, mm); err != nil {
		if isAuthError(err) {
			slog.Error("SMTP authentication failed, check the address and app password", "err", err)
		} else {
			slog.Error("SMTP send failed", "err", err)
		}
		return fmt.Errorf("notify: send: %w", err)
	}

	slog.Info("Notification sent", "kind", e.Kind, "url", e.Product.URL)
	return nil
}

func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == 535 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "authentication")
}

// LogNotifier only logs events. Used when no mail account is configured.
type LogNotifier struct {
	Currency string
}

func (n LogNotifier) Notify(_ context.Context, e domain.Event) error {
	msg := Compose(e, n.Currency)
	slog.Warn("No mail account configured, notification not sent",
		"kind", e.Kind, "subject", msg.Subject, "body", msg.Body)
	return nil
}
