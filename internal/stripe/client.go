// Package stripe wraps the Stripe API for checkout and webhooks.
package stripe

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

// Client handles checkout session creation against the Stripe API.
type Client struct {
	client *stripe.Client
}

// NewClient creates a Stripe client from the account secret key.
func NewClient(secretKey string) *Client {
	return &Client{
		client: stripe.NewClient(secretKey),
	}
}

// CheckoutLineItem is one priced line of a checkout session. Prices are
// whatever the order was priced at; Stripe never re-prices.
type CheckoutLineItem struct {
	Name            string
	Description     string
	UnitAmountCents int64
	Quantity        int64
}

// CheckoutSessionParams holds parameters for creating a checkout session.
type CheckoutSessionParams struct {
	OrderID       uuid.UUID
	CustomerEmail string
	LineItems     []CheckoutLineItem
	SuccessURL    string
	CancelURL     string
}

// CreateCheckoutSession creates a checkout session for an order. The order ID
// travels in the session metadata so the webhook can find its way back.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if len(params.LineItems) == 0 {
		return nil, fmt.Errorf("checkout session needs at least one line item")
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, buildSessionParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}

func buildSessionParams(params CheckoutSessionParams) *stripe.CheckoutSessionCreateParams {
	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		productData := &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripe.String("eur"),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(quantity),
		})
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
		LineItems:          lineItems,
		CustomerEmail:      stripe.String(params.CustomerEmail),
		Metadata: map[string]string{
			"order_id": params.OrderID.String(),
		},
		// Stripe does not copy session metadata onto the payment intent, so
		// the order ID has to be set there too for payment_intent.* events to
		// find their order.
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: map[string]string{
				"order_id": params.OrderID.String(),
			},
		},
	}
	if params.CustomerEmail == "" {
		sessionParams.CustomerEmail = nil
	}

	return sessionParams
}
