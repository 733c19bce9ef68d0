package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/atelierluz/storefront/internal/logging"
	"github.com/atelierluz/storefront/internal/models"
)

// PaymentService applies Stripe webhook events to orders. Transitions are
// guarded at the store level, so a replayed event that already happened is
// logged and acknowledged instead of re-applied (and never re-triggers
// notification emails).
type PaymentService struct {
	orderStore OrderStore
	notifier   *StatusNotifier
	logger     *slog.Logger
}

func NewPaymentService(orderStore OrderStore, notifier *StatusNotifier, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orderStore: orderStore,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *PaymentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// HandleCheckoutSessionCompleted flips the metadata-referenced order to paid
// and triggers the confirmation email through the notifier.
func (s *PaymentService) HandleCheckoutSessionCompleted(ctx context.Context, payload []byte) error {
	logger := s.loggerFromContext(ctx)

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("missing session ID")
	}

	orderID, err := orderIDFromMetadata(session.Metadata)
	if err != nil {
		return err
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s referenced by session %s does not exist", orderID, session.ID)
		}
		return fmt.Errorf("failed to get order: %w", err)
	}
	previous := order.Status

	if markErr := s.orderStore.MarkPaid(ctx, orderID, session.ID); markErr != nil {
		if errors.Is(markErr, ErrInvalidTransition) {
			logger.Info("ignoring checkout.session.completed due to state transition", "order_id", orderID, "session_id", session.ID, "error", markErr)
			return nil
		}
		return fmt.Errorf("failed to mark order as paid: %w", markErr)
	}

	updated, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to reload order: %w", err)
	}

	logger.Info("order paid", "order_id", orderID, "session_id", session.ID)
	if s.notifier != nil {
		s.notifier.NotifyStatusChange(updated, previous, updated.Status)
	}
	return nil
}

// HandleCheckoutSessionExpired cancels an order whose checkout link ran out.
func (s *PaymentService) HandleCheckoutSessionExpired(ctx context.Context, payload []byte) error {
	logger := s.loggerFromContext(ctx)

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("missing session ID")
	}

	orderID, err := orderIDFromMetadata(session.Metadata)
	if err != nil {
		return err
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s referenced by session %s does not exist", orderID, session.ID)
		}
		return fmt.Errorf("failed to get order: %w", err)
	}
	// Expiry only cancels orders that never got paid. A completed session
	// cannot expire, but a mis-ordered or replayed event must not touch a
	// paid order.
	if order.Status != models.StatusUnpaid {
		logger.Info("ignoring checkout.session.expired for non-unpaid order", "order_id", orderID, "status", string(order.Status))
		return nil
	}

	if markErr := s.orderStore.MarkCanceled(ctx, orderID); markErr != nil {
		if errors.Is(markErr, ErrInvalidTransition) {
			logger.Info("ignoring checkout.session.expired due to state transition", "order_id", orderID, "session_id", session.ID, "error", markErr)
			return nil
		}
		return fmt.Errorf("failed to mark order as canceled: %w", markErr)
	}

	logger.Info("checkout session expired handled", "order_id", orderID, "session_id", session.ID)
	return nil
}

// HandlePaymentIntentFailed marks the order as a problem case for the
// operator to look at. Intents without our metadata (created outside
// checkout) are skipped.
func (s *PaymentService) HandlePaymentIntentFailed(ctx context.Context, payload []byte) error {
	logger := s.loggerFromContext(ctx)

	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if intent.ID == "" {
		return fmt.Errorf("missing payment intent ID")
	}
	if len(intent.Metadata) == 0 {
		logger.Info("payment intent missing metadata; skipping", "intent_id", intent.ID)
		return nil
	}

	orderID, err := orderIDFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s referenced by intent %s does not exist", orderID, intent.ID)
		}
		return fmt.Errorf("failed to get order: %w", err)
	}
	// A declined first attempt is often followed by a successful retry on the
	// same session, so a failed intent only flags orders still waiting for
	// payment. Anything else is stale and acknowledged as a no-op.
	if order.Status != models.StatusUnpaid {
		logger.Info("ignoring payment_intent.payment_failed for non-unpaid order", "order_id", orderID, "status", string(order.Status))
		return nil
	}

	if markErr := s.orderStore.MarkProblem(ctx, orderID); markErr != nil {
		if errors.Is(markErr, ErrInvalidTransition) {
			logger.Info("ignoring payment_intent.payment_failed due to state transition", "order_id", orderID, "intent_id", intent.ID, "error", markErr)
			return nil
		}
		return fmt.Errorf("failed to mark order as problem: %w", markErr)
	}

	logger.Info("payment failure handled", "order_id", orderID, "intent_id", intent.ID)
	return nil
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	if metadata == nil {
		return uuid.Nil, fmt.Errorf("missing metadata")
	}

	orderIDStr, ok := metadata["order_id"]
	if !ok || orderIDStr == "" {
		return uuid.Nil, fmt.Errorf("missing order_id in metadata")
	}

	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order_id: %w", err)
	}

	return orderID, nil
}
