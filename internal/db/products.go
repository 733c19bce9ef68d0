package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierluz/storefront/internal/models"
)

// ProductStore reads the product catalog. The catalog is owned by an external
// system; this service never writes to it.
type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

func (s *ProductStore) GetByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	query := `SELECT id, name, description, price_cents, locale FROM products WHERE id = $1`

	var (
		product     models.Product
		description pgtype.Text
		locale      pgtype.Text
	)
	if err := s.pool.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.PriceCents,
		&locale,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		product.Description = description.String
	}
	if locale.Valid {
		product.Locale = locale.String
	}

	return &product, nil
}
