package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/atelierluz/storefront/internal/models"
)

func signedWebhookRequest(t *testing.T, secret string, payload []byte) *http.Request {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func checkoutCompletedEvent(eventID, sessionID, orderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","api_version":"2026-01-28.clover","type":"checkout.session.completed","data":{"object":{"id":%q,"object":"checkout.session","metadata":{"order_id":%q}}}}`,
		eventID, sessionID, orderID,
	))
}

func TestStripeWebhookMarksOrderPaid(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	order := &models.Order{
		CustomerEmail: "maria@example.com",
		AccessToken:   "ord_test",
		Status:        models.StatusUnpaid,
		Locale:        "en",
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	payload := checkoutCompletedEvent("evt_1", "cs_live_42", order.ID.String())
	rec := httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_test_secret", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	updated, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusPaid {
		t.Fatalf("order status = %q, want paid", updated.Status)
	}
	if updated.StripeCheckoutSessionID != "cs_live_42" {
		t.Fatalf("session id = %q", updated.StripeCheckoutSessionID)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	order := &models.Order{
		CustomerEmail: "maria@example.com",
		AccessToken:   "ord_test",
		Status:        models.StatusUnpaid,
		Locale:        "en",
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	payload := checkoutCompletedEvent("evt_1", "cs_live_42", order.ID.String())

	// Signed with the wrong secret.
	rec := httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_wrong_secret", payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// No signature at all.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	f.handlers.StripeWebhook(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	updated, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusUnpaid {
		t.Fatalf("unverified webhook changed the order: %q", updated.Status)
	}
}

func TestStripeWebhookReplayIsAcknowledged(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	order := &models.Order{
		CustomerEmail: "maria@example.com",
		AccessToken:   "ord_test",
		Status:        models.StatusUnpaid,
		Locale:        "en",
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	payload := checkoutCompletedEvent("evt_1", "cs_live_42", order.ID.String())

	rec := httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_test_secret", payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_test_secret", payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", rec.Code)
	}

	updated, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusPaid {
		t.Fatalf("order status = %q, want paid", updated.Status)
	}
}

func TestStripeWebhookPaymentFailureFlagsOrder(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	order := &models.Order{
		CustomerEmail: "maria@example.com",
		AccessToken:   "ord_test",
		Status:        models.StatusUnpaid,
		Locale:        "en",
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Checkout sessions propagate the order ID into the intent's metadata,
	// which is what payment_intent.* events deliver.
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_3","object":"event","api_version":"2026-01-28.clover","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","object":"payment_intent","metadata":{"order_id":%q}}}}`,
		order.ID.String(),
	))
	rec := httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_test_secret", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	updated, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusProblem {
		t.Fatalf("order status = %q, want problem", updated.Status)
	}
}

func TestStripeWebhookUnhandledEventIsAcknowledged(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)

	payload := []byte(`{"id":"evt_2","object":"event","api_version":"2026-01-28.clover","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	rec := httptest.NewRecorder()
	f.handlers.StripeWebhook(rec, signedWebhookRequest(t, "whsec_test_secret", payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
