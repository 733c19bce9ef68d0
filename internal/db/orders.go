package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierluz/storefront/internal/models"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, customer_name, customer_email, customer_phone, address, items,
	total_price_cents, locale, access_token, stripe_checkout_session_id,
	status, tracking_link, created_at, paid_at, shipped_at
`

func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to encode order address: %w", err)
	}

	query := `
		INSERT INTO orders (
			customer_name, customer_email, customer_phone, address, items,
			total_price_cents, locale, access_token, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	row := s.pool.QueryRow(ctx, query,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		addressJSON,
		itemsJSON,
		order.TotalPriceCents,
		order.Locale,
		order.AccessToken,
		string(order.Status),
	)

	var createdAt pgtype.Timestamptz
	if err := row.Scan(&order.ID, &createdAt); err != nil {
		return err
	}
	order.CreatedAt = createdAt.Time
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return s.scanOrder(s.pool.QueryRow(ctx, query, orderID))
}

func (s *OrderStore) GetByAccessToken(ctx context.Context, accessToken string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE access_token = $1`
	return s.scanOrder(s.pool.QueryRow(ctx, query, accessToken))
}

// UpdateCheckoutSession records the Stripe checkout session created for an
// order right after intake.
func (s *OrderStore) UpdateCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	query := `UPDATE orders SET stripe_checkout_session_id = $1 WHERE id = $2`
	_, err := s.pool.Exec(ctx, query, sessionID, orderID)
	return err
}

// MarkPaid transitions an unpaid order to paid. A replayed webhook finds the
// order already paid and gets ErrInvalidStatusTransition instead of a second
// transition.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	query := `
		UPDATE orders
		SET status = $1, stripe_checkout_session_id = $2, paid_at = NOW()
		WHERE id = $3 AND status = 'unpaid'
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusPaid, sessionID, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected unpaid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkShipped(ctx context.Context, orderID uuid.UUID, trackingLink string) error {
	query := `
		UPDATE orders
		SET status = $1, tracking_link = $2, shipped_at = NOW()
		WHERE id = $3 AND status = 'paid'
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusShipped, trackingLink, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected paid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkArrived(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = 'shipped'
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusArrived, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected shipped", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkCompleted(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status IN ('shipped', 'arrived')
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusCompleted, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected shipped/arrived", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkCanceled(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status NOT IN ('completed', 'canceled', 'problem')
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusCanceled, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected non-terminal", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkProblem(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status NOT IN ('completed', 'canceled', 'problem')
	`
	cmdTag, err := s.pool.Exec(ctx, query, models.StatusProblem, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected non-terminal", ErrInvalidStatusTransition)
	}
	return nil
}

type orderScanner interface {
	Scan(dest ...any) error
}

func (s *OrderStore) scanOrder(row orderScanner) (*models.Order, error) {
	var (
		order        models.Order
		phone        pgtype.Text
		addressJSON  []byte
		itemsJSON    []byte
		sessionID    pgtype.Text
		status       string
		trackingLink pgtype.Text
		createdAt    pgtype.Timestamptz
		paidAt       pgtype.Timestamptz
		shippedAt    pgtype.Timestamptz
	)

	if err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerEmail,
		&phone,
		&addressJSON,
		&itemsJSON,
		&order.TotalPriceCents,
		&order.Locale,
		&order.AccessToken,
		&sessionID,
		&status,
		&trackingLink,
		&createdAt,
		&paidAt,
		&shippedAt,
	); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatus(status)
	order.CreatedAt = createdAt.Time
	if phone.Valid {
		order.CustomerPhone = phone.String
	}
	if sessionID.Valid {
		order.StripeCheckoutSessionID = sessionID.String
	}
	if trackingLink.Valid {
		order.TrackingLink = trackingLink.String
	}
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}
	if shippedAt.Valid {
		order.ShippedAt = shippedAt.Time
	}

	if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
		return nil, fmt.Errorf("failed to decode order address: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	return &order, nil
}
