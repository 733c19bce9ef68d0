package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atelierluz/storefront/internal/models"
)

func TestNotifyStatusChange(t *testing.T) {
	t.Parallel()

	sender := newRecordingEmailSender()
	notifier := NewStatusNotifier(sender, discardLogger())

	order := &models.Order{
		ID:            uuid.New(),
		CustomerEmail: "maria@example.com",
		Status:        models.StatusPaid,
	}

	notifier.NotifyStatusChange(order, models.StatusUnpaid, models.StatusPaid)
	if got := sender.waitConfirmation(t); got.ID != order.ID {
		t.Fatal("confirmation sent for the wrong order")
	}

	order.Status = models.StatusShipped
	notifier.NotifyStatusChange(order, models.StatusPaid, models.StatusShipped)
	select {
	case got := <-sender.shipped:
		if got.ID != order.ID {
			t.Fatal("shipped notification sent for the wrong order")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shipped notification")
	}
}

func TestNotifyStatusChangeSilentTransitions(t *testing.T) {
	t.Parallel()

	sender := newRecordingEmailSender()
	notifier := NewStatusNotifier(sender, discardLogger())

	order := &models.Order{ID: uuid.New(), CustomerEmail: "maria@example.com"}

	// Only paid and shipped notify the customer.
	notifier.NotifyStatusChange(order, models.StatusShipped, models.StatusArrived)
	notifier.NotifyStatusChange(order, models.StatusArrived, models.StatusCompleted)
	notifier.NotifyStatusChange(order, models.StatusUnpaid, models.StatusCanceled)
	notifier.NotifyStatusChange(order, models.StatusUnpaid, models.StatusProblem)

	// No-op transitions never notify.
	notifier.NotifyStatusChange(order, models.StatusPaid, models.StatusPaid)
	notifier.NotifyStatusChange(nil, models.StatusUnpaid, models.StatusPaid)

	sender.expectNoConfirmation(t)
	select {
	case <-sender.shipped:
		t.Fatal("unexpected shipped notification")
	case <-time.After(100 * time.Millisecond):
	}
}
