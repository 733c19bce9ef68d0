package models

import "github.com/google/uuid"

// Product is a catalog entry. The catalog is owned by an external system;
// this service only ever reads it.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int       `json:"price_cents"`
	Locale      string    `json:"locale"`
}
