package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"

	"github.com/atelierluz/storefront/internal/email"
	"github.com/atelierluz/storefront/internal/i18n"
	"github.com/atelierluz/storefront/internal/logging"
	"github.com/atelierluz/storefront/internal/observability"
)

// ErrSupportEmailNotConfigured means the deployment has no support inbox to
// forward contact submissions to.
var ErrSupportEmailNotConfigured = errors.New("support email is not configured")

// ContactService handles contact-form submissions: one notification to the
// support inbox, one confirmation back to the submitter.
type ContactService struct {
	provider     email.Provider
	renderer     *email.Renderer
	locales      *i18n.Catalog
	supportEmail string
	logger       *slog.Logger
}

func NewContactService(provider email.Provider, renderer *email.Renderer, locales *i18n.Catalog, supportEmail string, logger *slog.Logger) *ContactService {
	return &ContactService{
		provider:     provider,
		renderer:     renderer,
		locales:      locales,
		supportEmail: supportEmail,
		logger:       logger,
	}
}

func (s *ContactService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type ContactSubmission struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Subject   string `json:"subject" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Phone     string `json:"phone"`
	OrderID   string `json:"orderId"`
	Locale    string `json:"locale"`
}

// Submit validates a submission and sends exactly two emails. Both sends are
// synchronous; a failure surfaces to the caller as a server error and no
// partial success is reported.
func (s *ContactService) Submit(ctx context.Context, submission ContactSubmission) (string, error) {
	span := sentry.StartSpan(
		ctx,
		"service.contact.submit",
		sentry.WithOpName("service.contact"),
		sentry.WithDescription("Submit"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("contact.submission.received", 1)

	if err := inputValidator.Struct(submission); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			meter.Count("contact.submission.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "validation_failed"),
			))
			return "", fmt.Errorf("%w: %s", ErrInvalidInput, validationMessage(err))
		}
		return "", err
	}

	if s.supportEmail == "" {
		logger.Error("contact form submitted but support email is not configured")
		return "", ErrSupportEmailNotConfigured
	}

	dict := s.locales.Dictionary(submission.Locale)
	info := &email.ContactInfo{
		FirstName: submission.FirstName,
		LastName:  submission.LastName,
		Email:     submission.Email,
		Phone:     submission.Phone,
		Subject:   submission.Subject,
		Message:   submission.Message,
		OrderID:   submission.OrderID,
	}

	notification, err := s.renderer.RenderContactNotification(dict, info, s.supportEmail)
	if err != nil {
		return "", fmt.Errorf("failed to render contact notification: %w", err)
	}
	if err := s.provider.SendEmail(ctx, notification); err != nil {
		return "", fmt.Errorf("failed to send contact notification: %w", err)
	}

	confirmation, err := s.renderer.RenderContactConfirmation(dict, info)
	if err != nil {
		return "", fmt.Errorf("failed to render contact confirmation: %w", err)
	}
	if err := s.provider.SendEmail(ctx, confirmation); err != nil {
		return "", fmt.Errorf("failed to send contact confirmation: %w", err)
	}

	meter.Count("contact.submission.sent", 1)
	logger.Info("contact form processed", "submitter", submission.Email)

	return dict.Contact.SuccessMessage, nil
}
