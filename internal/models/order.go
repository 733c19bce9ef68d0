package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusUnpaid    OrderStatus = "unpaid"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusArrived   OrderStatus = "arrived"
	StatusCompleted OrderStatus = "completed"
	StatusCanceled  OrderStatus = "canceled"
	StatusProblem   OrderStatus = "problem"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusShipped, StatusArrived, StatusCompleted, StatusCanceled, StatusProblem:
		return true
	default:
		return false
	}
}

// Terminal reports whether an order in status s can no longer change state.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusProblem:
		return true
	default:
		return false
	}
}

// Address is the shipping destination captured at order creation.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem is a single product line on an order. Product name and unit price
// are copied from the catalog at creation time so the order stays coherent if
// the catalog changes afterwards.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

type Order struct {
	ID                      uuid.UUID   `json:"id"`
	CustomerName            string      `json:"customer_name"`
	CustomerEmail           string      `json:"customer_email"`
	CustomerPhone           string      `json:"customer_phone,omitempty"`
	Address                 Address     `json:"address"`
	Items                   []OrderItem `json:"items"`
	TotalPriceCents         int         `json:"total_price_cents"`
	Locale                  string      `json:"locale"`
	AccessToken             string      `json:"access_token"`
	StripeCheckoutSessionID string      `json:"stripe_checkout_session_id,omitempty"`
	Status                  OrderStatus `json:"status"`
	TrackingLink            string      `json:"tracking_link,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
	PaidAt                  time.Time   `json:"paid_at,omitzero"`
	ShippedAt               time.Time   `json:"shipped_at,omitzero"`
}
