package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/gatherhall/server/internal/config"
	"github.com/gatherhall/server/internal/metrics"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Email kinds, used as the metric label for outbound mail.
const (
	kindWelcome      = "welcome"
	kindReset        = "password_reset"
	kindConfirmation = "registration_confirmation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service renders and sends transactional email through the Resend API.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// WelcomeData holds data for rendering the welcome email template.
type WelcomeData struct {
	Name        string
	CurrentYear int
}

// PasswordResetData holds data for rendering the password reset email template.
type PasswordResetData struct {
	Name        string
	ResetLink   string
	ExpiryText  string
	CurrentYear int
}

// RegistrationData holds data for rendering the registration confirmation template.
type RegistrationData struct {
	Name        string
	EventTitle  string
	EventDate   string
	Location    string
	CurrentYear int
}

// NewService creates a new email service instance. When cfg.Enabled is false
// no Resend client is created and sends become structured log lines.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
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
		svc.resendClient = resend.NewClient(cfg.APIKey)
	}
	return svc, nil
}

// SendWelcome sends the account welcome email to a freshly registered user.
func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		metrics.EmailsTotal.WithLabelValues(kindWelcome, "skipped").Inc()
		s.logger.Info().
			Str("to", to).
			Str("name", name).
			Msg("email service disabled, skipping welcome email")
		return nil
	}

	htmlBody, err := s.renderTemplate("welcome.html", WelcomeData{
		Name:        name,
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}

	if err := s.send(ctx, kindWelcome, to, "Welcome to GatherHall", htmlBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

// SendPasswordReset sends a password reset link. The link must be an absolute
// http(s) URL; anything else is rejected before rendering.
func (s *Service) SendPasswordReset(ctx context.Context, to, name, resetLink string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}
	if err := validateLinkURL(resetLink); err != nil {
		return fmt.Errorf("invalid reset link: %w", err)
	}

	if !s.config.Enabled {
		metrics.EmailsTotal.WithLabelValues(kindReset, "skipped").Inc()
		s.logger.Info().
			Str("to", to).
			Str("link", resetLink).
			Msg("email service disabled, skipping password reset email")
		return nil
	}

	htmlBody, err := s.renderTemplate("password_reset.html", PasswordResetData{
		Name:        name,
		ResetLink:   resetLink,
		ExpiryText:  "1 hour",
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render password reset template: %w", err)
	}

	if err := s.send(ctx, kindReset, to, "Reset your GatherHall password", htmlBody); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// SendRegistrationConfirmation confirms an event registration to the attendee.
func (s *Service) SendRegistrationConfirmation(ctx context.Context, to, name, eventTitle, eventDate, location string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		metrics.EmailsTotal.WithLabelValues(kindConfirmation, "skipped").Inc()
		s.logger.Info().
			Str("to", to).
			Str("event", eventTitle).
			Msg("email service disabled, skipping registration confirmation")
		return nil
	}

	htmlBody, err := s.renderTemplate("registration_confirmation.html", RegistrationData{
		Name:        name,
		EventTitle:  eventTitle,
		EventDate:   eventDate,
		Location:    location,
		CurrentYear: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render registration confirmation template: %w", err)
	}

	subject := fmt.Sprintf("You're registered for %s", eventTitle)
	if err := s.send(ctx, kindConfirmation, to, subject, htmlBody); err != nil {
		return fmt.Errorf("failed to send registration confirmation: %w", err)
	}
	return nil
}

// send delivers one rendered message to a single recipient through Resend and
// records the outcome. Sends are single-attempt: a rate-limited or failed
// delivery is logged and counted, never retried here.
func (s *Service) send(ctx context.Context, kind, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		metrics.EmailsTotal.WithLabelValues(kind, "failed").Inc()
		return fmt.Errorf("resend client not initialized")
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		metrics.EmailsTotal.WithLabelValues(kind, "failed").Inc()
		var rateLimited *resend.RateLimitError
		if errors.As(err, &rateLimited) {
			s.logger.Warn().
				Str("kind", kind).
				Str("reset", rateLimited.Reset).
				Msg("resend rate limited, message dropped")
			return fmt.Errorf("rate limited, resets in %s seconds: %w", rateLimited.Reset, err)
		}
		return fmt.Errorf("resend: %w", err)
	}

	metrics.EmailsTotal.WithLabelValues(kind, "sent").Inc()
	s.logger.Info().
		Str("kind", kind).
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent")
	return nil
}

// validateEmailAddress validates an email address for format and header injection attempts.
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

// validateLinkURL rejects non-http(s) schemes so javascript: and data: URLs
// can never reach a rendered template.
func validateLinkURL(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// renderTemplate renders an email template with the given data.
func (s *Service) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
