package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierluz/storefront/internal/cache"
	"github.com/atelierluz/storefront/internal/config"
	"github.com/atelierluz/storefront/internal/logging"
	"github.com/atelierluz/storefront/internal/services"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP request handlers of the storefront API.
type Handlers struct {
	config         *config.Config
	db             *pgxpool.Pool
	orderService   *services.OrderService
	contactService *services.ContactService
	stripeRouter   *StripeEventRouter
	cacheProvider  cache.Provider
	logger         *slog.Logger
}

type Dependencies struct {
	Config         *config.Config
	DB             *pgxpool.Pool
	OrderService   *services.OrderService
	ContactService *services.ContactService
	StripeRouter   *StripeEventRouter
	CacheProvider  cache.Provider
	Logger         *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.ContactService == nil {
		return nil, fmt.Errorf("handlers dependencies: contactService is required")
	}
	if deps.StripeRouter == nil {
		return nil, fmt.Errorf("handlers dependencies: stripeRouter is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}

	return &Handlers{
		config:         deps.Config,
		db:             deps.DB,
		orderService:   deps.OrderService,
		contactService: deps.ContactService,
		stripeRouter:   deps.StripeRouter,
		cacheProvider:  deps.CacheProvider,
		logger:         logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]any{
		"error": map[string]any{
			"status":  status,
			"message": message,
		},
	})
}
