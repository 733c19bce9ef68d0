package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/atelierluz/storefront/internal/models"
)

// notifyTimeout bounds the detached email dispatch; the request that caused
// the transition never waits on it.
const notifyTimeout = 30 * time.Second

// StatusNotifier reacts to order status transitions. Transitions into paid
// and shipped trigger customer emails; everything else is just logged. Email
// failures are logged and swallowed, the status change itself is never rolled
// back.
type StatusNotifier struct {
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewStatusNotifier(emailSender OrderEmailSender, logger *slog.Logger) *StatusNotifier {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}
	return &StatusNotifier{
		emailSender: emailSender,
		logger:      logger,
	}
}

// NotifyStatusChange dispatches the notification for a completed transition.
// It returns immediately; the email is sent on a detached goroutine with its
// own timeout so webhook and operator requests are never blocked on the mail
// provider.
func (n *StatusNotifier) NotifyStatusChange(order *models.Order, from, to models.OrderStatus) {
	if order == nil || from == to {
		return
	}

	logger := n.logger.With("order_id", order.ID, "from", string(from), "to", string(to))

	var send func(context.Context, *models.Order) error
	var kind string
	switch to {
	case models.StatusPaid:
		send = n.emailSender.SendOrderConfirmation
		kind = "order_confirmation"
	case models.StatusShipped:
		send = n.emailSender.SendOrderShipped
		kind = "order_shipped"
	default:
		logger.Debug("status change without customer notification")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		meter := sentry.NewMeter(ctx).WithCtx(ctx)
		meter.SetAttributes(attribute.String("email.kind", kind))

		if err := send(ctx, order); err != nil {
			meter.Count("order.notification.failed", 1)
			logger.Error("failed to send status notification email", "error", err, "kind", kind)
			return
		}
		meter.Count("order.notification.sent", 1)
		logger.Info("status notification email sent", "kind", kind, "to", order.CustomerEmail)
	}()
}
