package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StripeSecretKey      string `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	StripePublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required" validate:"required"`

	// FrontendURL is the base URL the checkout success/cancel pages live under.
	FrontendURL string `env:"FRONTEND_URL,required" validate:"required,url"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"brevo" validate:"oneof=brevo resend"`
	EmailAPIKey   string `env:"EMAIL_API_KEY,required" validate:"required"`
	SenderEmail   string `env:"EMAIL_FROM,required" validate:"required,email"`
	SupportEmail  string `env:"EMAIL_SUPPORT" validate:"omitempty,email"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	frontendURL := strings.TrimSpace(c.FrontendURL)
	parsed, err := url.Parse(frontendURL)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("FRONTEND_URL must be a valid absolute URL")
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("FRONTEND_URL must use https outside local development")
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
