package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/atelierluz/storefront/internal/cache"
	"github.com/atelierluz/storefront/internal/config"
	"github.com/atelierluz/storefront/internal/email"
	"github.com/atelierluz/storefront/internal/i18n"
	"github.com/atelierluz/storefront/internal/models"
	"github.com/atelierluz/storefront/internal/services"
	"github.com/atelierluz/storefront/internal/stripe"
)

type memOrderStore struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*models.Order
	byToken map[string]uuid.UUID
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders:  make(map[uuid.UUID]*models.Order),
		byToken: make(map[string]uuid.UUID),
	}
}

func (s *memOrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	stored := *order
	s.orders[order.ID] = &stored
	s.byToken[order.AccessToken] = order.ID
	return nil
}

func (s *memOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (s *memOrderStore) GetByAccessToken(_ context.Context, accessToken string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, ok := s.byToken[accessToken]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s.orders[orderID]
	return &copied, nil
}

func (s *memOrderStore) UpdateCheckoutSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order, ok := s.orders[orderID]; ok {
		order.StripeCheckoutSessionID = sessionID
		return nil
	}
	return pgx.ErrNoRows
}

func (s *memOrderStore) MarkPaid(_ context.Context, orderID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	if order.Status != models.StatusUnpaid {
		return services.ErrInvalidTransition
	}
	order.Status = models.StatusPaid
	order.StripeCheckoutSessionID = sessionID
	order.PaidAt = time.Now()
	return nil
}

func (s *memOrderStore) MarkShipped(_ context.Context, orderID uuid.UUID, trackingLink string) error {
	return s.guarded(orderID, models.StatusShipped, func(order *models.Order) bool {
		if order.Status != models.StatusPaid {
			return false
		}
		order.TrackingLink = trackingLink
		order.ShippedAt = time.Now()
		return true
	})
}

func (s *memOrderStore) MarkArrived(_ context.Context, orderID uuid.UUID) error {
	return s.guarded(orderID, models.StatusArrived, func(order *models.Order) bool {
		return order.Status == models.StatusShipped
	})
}

func (s *memOrderStore) MarkCompleted(_ context.Context, orderID uuid.UUID) error {
	return s.guarded(orderID, models.StatusCompleted, func(order *models.Order) bool {
		return order.Status == models.StatusShipped || order.Status == models.StatusArrived
	})
}

func (s *memOrderStore) MarkCanceled(_ context.Context, orderID uuid.UUID) error {
	return s.guarded(orderID, models.StatusCanceled, func(order *models.Order) bool {
		return !order.Status.Terminal()
	})
}

func (s *memOrderStore) MarkProblem(_ context.Context, orderID uuid.UUID) error {
	return s.guarded(orderID, models.StatusProblem, func(order *models.Order) bool {
		return !order.Status.Terminal()
	})
}

func (s *memOrderStore) guarded(orderID uuid.UUID, to models.OrderStatus, apply func(*models.Order) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !apply(order) {
		return services.ErrInvalidTransition
	}
	order.Status = to
	return nil
}

type memProductStore struct {
	products map[uuid.UUID]*models.Product
}

func (s *memProductStore) GetByID(_ context.Context, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *product
	return &copied, nil
}

type stubCheckoutClient struct{}

func (stubCheckoutClient) CreateCheckoutSession(_ context.Context, params stripe.CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	return &stripeapi.CheckoutSession{
		ID:  "cs_test_" + params.OrderID.String()[:8],
		URL: "https://checkout.stripe.com/c/pay/cs_test",
	}, nil
}

type stubEmailProvider struct {
	mu   sync.Mutex
	sent []*email.Email
}

func (p *stubEmailProvider) SendEmail(_ context.Context, msg *email.Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *stubEmailProvider) ValidateAPIKey(context.Context) error { return nil }

func (p *stubEmailProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type handlerFixture struct {
	handlers *Handlers
	orders   *memOrderStore
	provider *stubEmailProvider
	mugID    uuid.UUID
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	locales, err := i18n.Load()
	if err != nil {
		t.Fatalf("failed to load locales: %v", err)
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}

	mugID := uuid.New()
	orders := newMemOrderStore()
	products := &memProductStore{products: map[uuid.UUID]*models.Product{
		mugID: {ID: mugID, Name: "Ceramic Mug", PriceCents: 1200, Locale: "en"},
	}}
	provider := &stubEmailProvider{}

	cfg := &config.Config{
		FrontendURL:         "https://shop.example.com",
		StripeWebhookSecret: "whsec_test_secret",
		SupportEmail:        "support@example.com",
	}

	orderService := services.NewOrderService(orders, products, stubCheckoutClient{}, nil, locales, cfg.FrontendURL, logger)
	paymentService := services.NewPaymentService(orders, nil, logger)
	contactService := services.NewContactService(provider, renderer, locales, cfg.SupportEmail, logger)
	stripeRouter := NewStripeEventRouter(paymentService, logger)

	cacheProvider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to build cache provider: %v", err)
	}
	t.Cleanup(func() { _ = cacheProvider.Close() })

	return &handlerFixture{
		handlers: &Handlers{
			config:         cfg,
			orderService:   orderService,
			contactService: contactService,
			stripeRouter:   stripeRouter,
			cacheProvider:  cacheProvider,
			logger:         logger,
		},
		orders:   orders,
		provider: provider,
		mugID:    mugID,
	}
}
