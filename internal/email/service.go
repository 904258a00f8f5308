package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/metrics"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service sends transactional email through Resend.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// contactData holds data for rendering the contact notification template
type contactData struct {
	contact.Message
	ReceivedAt  string
	CurrentYear int
}

// NewService creates the email service. When email is disabled no client is
// built and notifications are only logged.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		if err := validateEmailAddress(cfg.NotifyTo); err != nil {
			return nil, fmt.Errorf("invalid notification recipient in config: %w", err)
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// NotifyContactMessage forwards a new contact message to the site inbox.
func (s *Service) NotifyContactMessage(ctx context.Context, message contact.Message) error {
	if !s.config.Enabled {
		metrics.EmailNotifications.WithLabelValues("skipped").Inc()
		s.logger.Info().
			Str("message_id", message.ID).
			Str("from", message.Email).
			Msg("email service disabled, skipping contact notification")
		return nil
	}

	received := message.CreatedAt
	if received.IsZero() {
		received = time.Now()
	}
	htmlBody, err := s.renderTemplate("contact_notification.html", contactData{
		Message:     message,
		ReceivedAt:  received.UTC().Format("02/01/2006 15:04 MST"),
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		metrics.EmailNotifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to render contact template: %w", err)
	}

	subject := "Nouveau message de " + headerSafe(message.Name)
	if message.Subject != "" {
		subject += " : " + headerSafe(message.Subject)
	}
	if err := s.sendViaResend(ctx, s.config.NotifyTo, subject, htmlBody, message.Email); err != nil {
		metrics.EmailNotifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to send contact notification: %w", err)
	}
	metrics.EmailNotifications.WithLabelValues("sent").Inc()
	return nil
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

func headerSafe(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
