package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierluz/storefront/internal/cache"
	"github.com/atelierluz/storefront/internal/config"
	"github.com/atelierluz/storefront/internal/db"
	"github.com/atelierluz/storefront/internal/email"
	"github.com/atelierluz/storefront/internal/handlers"
	"github.com/atelierluz/storefront/internal/i18n"
	"github.com/atelierluz/storefront/internal/services"
	"github.com/atelierluz/storefront/internal/stripe"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.EmailAPIKey,
		From:     cfg.SenderEmail,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	// Bad email credentials would otherwise only surface on the first order.
	if err := emailProvider.ValidateAPIKey(startupCtx); err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("email provider credential check failed: %w", err)
	}

	renderer, err := email.NewRenderer()
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email templates: %w", err)
	}

	locales, err := i18n.Load()
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to load locale catalog: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	productStore := db.NewProductStore(database)
	stripeClient := stripe.NewClient(cfg.StripeSecretKey)

	emailSender := services.NewTransactionalEmailSender(emailProvider, renderer, locales)
	notifier := services.NewStatusNotifier(emailSender, logger.With("component", "status_notifier"))

	orderService := services.NewOrderService(
		orderStore,
		productStore,
		stripeClient,
		notifier,
		locales,
		cfg.FrontendURL,
		logger.With("component", "order_service"),
	)
	paymentService := services.NewPaymentService(orderStore, notifier, logger.With("component", "payment_service"))
	contactService := services.NewContactService(emailProvider, renderer, locales, cfg.SupportEmail, logger.With("component", "contact_service"))
	stripeRouter := handlers.NewStripeEventRouter(paymentService, logger.With("component", "stripe_router"))

	h, err := handlers.New(handlers.Dependencies{
		Config:         cfg,
		DB:             database,
		OrderService:   orderService,
		ContactService: contactService,
		StripeRouter:   stripeRouter,
		CacheProvider:  cacheProvider,
		Logger:         logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
