package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/atelierluz/storefront/internal/db"
	"github.com/atelierluz/storefront/internal/i18n"
	"github.com/atelierluz/storefront/internal/logging"
	"github.com/atelierluz/storefront/internal/models"
	"github.com/atelierluz/storefront/internal/observability"
	"github.com/atelierluz/storefront/internal/stripe"
	"github.com/atelierluz/storefront/internal/token"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidTransition = db.ErrInvalidStatusTransition
)

// OrderStore is the order persistence surface the service needs.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*models.Order, error)
	UpdateCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkShipped(ctx context.Context, orderID uuid.UUID, trackingLink string) error
	MarkArrived(ctx context.Context, orderID uuid.UUID) error
	MarkCompleted(ctx context.Context, orderID uuid.UUID) error
	MarkCanceled(ctx context.Context, orderID uuid.UUID) error
	MarkProblem(ctx context.Context, orderID uuid.UUID) error
}

// ProductStore reads the externally owned catalog.
type ProductStore interface {
	GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

// CheckoutClient creates Stripe checkout sessions.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

var inputValidator = validator.New()

type OrderService struct {
	orderStore   OrderStore
	productStore ProductStore
	checkout     CheckoutClient
	notifier     *StatusNotifier
	locales      *i18n.Catalog
	frontendURL  string
	logger       *slog.Logger
}

func NewOrderService(orderStore OrderStore, productStore ProductStore, checkout CheckoutClient, notifier *StatusNotifier, locales *i18n.Catalog, frontendURL string, logger *slog.Logger) *OrderService {
	return &OrderService{
		orderStore:   orderStore,
		productStore: productStore,
		checkout:     checkout,
		notifier:     notifier,
		locales:      locales,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		logger:       logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type OrderItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderInput struct {
	Name    string           `json:"name" validate:"required"`
	Email   string           `json:"email" validate:"required,email"`
	Phone   string           `json:"phone"`
	Address models.Address   `json:"address" validate:"required"`
	Items   []OrderItemInput `json:"orderItems" validate:"required,min=1,dive"`
	Locale  string           `json:"locale"`
}

// CreateOrderResult carries the created order plus the Stripe-hosted checkout
// URL the customer is redirected to.
type CreateOrderResult struct {
	Order       *models.Order
	CheckoutURL string
}

// CreateOrder prices the requested items, persists the order as unpaid and
// opens a checkout session for it. The three steps are sequential and
// non-atomic: if session creation fails the order stays unpaid without a
// session and the customer has to retry.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("CreateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("order.intake.received", 1)
	recordFailure := func(reason string) {
		meter.Count("order.intake.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if err := inputValidator.Struct(input); err != nil {
		recordFailure("validation_failed")
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validationMessage(err))
	}

	// Products are looked up one by one; a price change between lookup and
	// order creation is a known, accepted race.
	totalCents := 0
	items := make([]models.OrderItem, 0, len(input.Items))
	lineItems := make([]stripe.CheckoutLineItem, 0, len(input.Items))
	productLocale := ""
	for _, itemInput := range input.Items {
		product, err := s.productStore.GetByID(ctx, itemInput.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				recordFailure("unknown_product")
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, itemInput.ProductID)
			}
			recordFailure("product_lookup_failed")
			return nil, fmt.Errorf("failed to look up product %s: %w", itemInput.ProductID, err)
		}

		totalCents += product.PriceCents * itemInput.Quantity
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       itemInput.Quantity,
		})
		lineItems = append(lineItems, stripe.CheckoutLineItem{
			Name:            product.Name,
			Description:     product.Description,
			UnitAmountCents: int64(product.PriceCents),
			Quantity:        int64(itemInput.Quantity),
		})
		if productLocale == "" && product.Locale != "" {
			productLocale = product.Locale
		}
	}

	accessToken, err := token.New()
	if err != nil {
		recordFailure("token_generation_failed")
		return nil, err
	}

	order := &models.Order{
		CustomerName:    input.Name,
		CustomerEmail:   input.Email,
		CustomerPhone:   input.Phone,
		Address:         input.Address,
		Items:           items,
		TotalPriceCents: totalCents,
		Locale:          s.resolveLocale(input.Locale, productLocale),
		AccessToken:     accessToken,
		Status:          models.StatusUnpaid,
	}

	if err := s.orderStore.Create(ctx, order); err != nil {
		recordFailure("order_create_failed")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		LineItems:     lineItems,
		SuccessURL:    s.frontendURL + "/order/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.frontendURL + "/order/canceled",
	})
	if err != nil {
		recordFailure("checkout_session_failed")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.orderStore.UpdateCheckoutSession(ctx, order.ID, session.ID); err != nil {
		recordFailure("session_update_failed")
		return nil, fmt.Errorf("failed to record checkout session: %w", err)
	}
	order.StripeCheckoutSessionID = session.ID

	meter.Count("order.intake.created", 1)
	logger.Info("order created", "order_id", order.ID, "total_cents", order.TotalPriceCents, "items", len(order.Items))

	return &CreateOrderResult{
		Order:       order,
		CheckoutURL: session.URL,
	}, nil
}

// GetOrderByAccessToken resolves the capability-style order lookup. The token
// shape is checked first so obviously bogus values never reach the database.
func (s *OrderService) GetOrderByAccessToken(ctx context.Context, accessToken string) (*models.Order, error) {
	if !token.Valid(accessToken) {
		return nil, ErrOrderNotFound
	}

	order, err := s.orderStore.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// StatusLabel translates an order's status into its locale, for display on
// the customer's order page.
func (s *OrderService) StatusLabel(order *models.Order) string {
	if order == nil {
		return ""
	}
	return s.locales.StatusLabel(order.Locale, string(order.Status))
}

type UpdateStatusInput struct {
	Status       models.OrderStatus `json:"status"`
	TrackingLink string             `json:"trackingLink"`
}

// UpdateStatus applies an operator-driven status change. Paid is reserved for
// the payment webhook; everything else goes through the store's guarded
// transitions. Successful transitions are reported to the notifier.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*models.Order, error) {
	logger := s.loggerFromContext(ctx)

	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, string(input.Status))
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	previous := order.Status

	switch input.Status {
	case models.StatusShipped:
		err = s.orderStore.MarkShipped(ctx, orderID, input.TrackingLink)
	case models.StatusArrived:
		err = s.orderStore.MarkArrived(ctx, orderID)
	case models.StatusCompleted:
		err = s.orderStore.MarkCompleted(ctx, orderID)
	case models.StatusCanceled:
		err = s.orderStore.MarkCanceled(ctx, orderID)
	case models.StatusProblem:
		err = s.orderStore.MarkProblem(ctx, orderID)
	default:
		return nil, fmt.Errorf("%w: status %q cannot be set manually", ErrInvalidInput, string(input.Status))
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	logger.Info("order status updated", "order_id", orderID, "from", string(previous), "to", string(updated.Status))
	if s.notifier != nil {
		s.notifier.NotifyStatusChange(updated, previous, updated.Status)
	}

	return updated, nil
}

// resolveLocale picks the order's email locale: explicit request first, then
// the catalog's product locale, then the default.
func (s *OrderService) resolveLocale(requested, productLocale string) string {
	if requested != "" && s.locales.Supported(requested) {
		return i18n.Normalize(requested)
	}
	if productLocale != "" && s.locales.Supported(productLocale) {
		return i18n.Normalize(productLocale)
	}
	return i18n.DefaultLocale
}

// validationMessage flattens a validator error into a short client-facing
// message without reflecting internals back.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request payload"
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, fieldError.Field())
	}
	return "missing or invalid fields: " + strings.Join(fields, ", ")
}
