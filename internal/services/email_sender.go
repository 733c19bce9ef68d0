package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierluz/storefront/internal/email"
	"github.com/atelierluz/storefront/internal/i18n"
	"github.com/atelierluz/storefront/internal/models"
)

// OrderEmailSender sends the customer-facing order lifecycle emails.
type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendOrderShipped(ctx context.Context, order *models.Order) error
}

// TransactionalEmailSender renders locale-aware templates and hands them to
// the configured email provider.
type TransactionalEmailSender struct {
	provider email.Provider
	renderer *email.Renderer
	locales  *i18n.Catalog
}

func NewTransactionalEmailSender(provider email.Provider, renderer *email.Renderer, locales *i18n.Catalog) *TransactionalEmailSender {
	return &TransactionalEmailSender{
		provider: provider,
		renderer: renderer,
		locales:  locales,
	}
}

func (s *TransactionalEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.CustomerEmail == "" {
		return fmt.Errorf("order has no email address")
	}

	dict := s.locales.Dictionary(order.Locale)
	msg, err := s.renderer.RenderOrderConfirmation(dict, BuildOrderInfo(order))
	if err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}
	if err := s.provider.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

func (s *TransactionalEmailSender) SendOrderShipped(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.CustomerEmail == "" {
		return fmt.Errorf("order has no email address")
	}

	dict := s.locales.Dictionary(order.Locale)
	msg, err := s.renderer.RenderOrderShipped(dict, BuildOrderInfo(order))
	if err != nil {
		return fmt.Errorf("failed to render order shipped email: %w", err)
	}
	if err := s.provider.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order shipped email: %w", err)
	}
	return nil
}

// BuildOrderInfo flattens an order into the template payload. Prices are
// formatted here so templates never see cents.
func BuildOrderInfo(order *models.Order) *email.OrderInfo {
	items := make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, email.OrderItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    formatPrice(item.UnitPriceCents * item.Quantity),
		})
	}

	return &email.OrderInfo{
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OrderNumber:   orderNumber(order),
		OrderDate:     order.CreatedAt.Format("02 Jan 2006"),
		Total:         formatPrice(order.TotalPriceCents),
		Items:         items,
		AddressLines:  addressLines(order.Address),
		TrackingLink:  order.TrackingLink,
	}
}

// orderNumber is the short human-facing order reference: the first uuid
// group, uppercased.
func orderNumber(order *models.Order) string {
	id := order.ID.String()
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		id = id[:idx]
	}
	return "#" + strings.ToUpper(id)
}

func formatPrice(cents int) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100.0)
}

func addressLines(address models.Address) []string {
	lines := make([]string, 0, 4)
	if strings.TrimSpace(address.Name) != "" {
		lines = append(lines, strings.TrimSpace(address.Name))
	}
	if strings.TrimSpace(address.Street) != "" {
		lines = append(lines, strings.TrimSpace(address.Street))
	}
	cityLine := strings.Trim(strings.TrimSpace(address.City)+", "+strings.TrimSpace(address.PostalCode), ", ")
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if strings.TrimSpace(address.Country) != "" {
		lines = append(lines, strings.TrimSpace(address.Country))
	}
	return lines
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderShipped(context.Context, *models.Order) error {
	return nil
}
