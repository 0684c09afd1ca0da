package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wellbot/wellbot-api/pkg/logging"
)

const defaultFromName = "WellBot"

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("notify: recipient required")

// EmailSender delivers one patient email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single outbound email. HTML falls back to Body.
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Body     string
	HTML     string
	Category string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Sandbox asks SendGrid to validate messages without delivering them.
	Sandbox bool
}

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	sandbox   bool
	logger    *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.FromName) == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		sandbox:   cfg.Sandbox,
		logger:    logger,
	}
}

func (s *SendGridSender) build(msg EmailMessage) *mail.SGMailV3 {
	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = msg.Body
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		htmlBody,
	)
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	if s.sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		m.SetMailSettings(settings)
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	resp, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected message", "status", resp.StatusCode, "category", msg.Category)
		return fmt.Errorf("notify: sendgrid status %d", resp.StatusCode)
	}
	s.logger.Debug("email sent", "category", msg.Category, "status", resp.StatusCode, "sandbox", s.sandbox)
	return nil
}

// StubEmailSender only logs. It stands in when SendGrid is not configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	s.logger.Info("email not sent, sendgrid disabled", "category", msg.Category, "subject", msg.Subject)
	return nil
}
