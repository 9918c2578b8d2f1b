package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitingo/advance-workflow/internal/application/dispatcher"
	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/event"
)

// NotificationService tells requesters about finance decisions on their advance
type NotificationService interface {
	// Register subscribes the service to every finance event
	Register(d dispatcher.Dispatcher)

	// Handle turns one event into a message to the requester
	Handle(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	notifier port.Notifier
	logger   Logger
}

// NewNotificationService creates a NotificationService
func NewNotificationService(notifier port.Notifier, logger Logger) NotificationService {
	return &notificationServiceImpl{notifier: notifier, logger: logger}
}

var notifiedEvents = []event.Type{
	event.TypeLineRejected,
	event.TypePartiallyApproved,
	event.TypeAdvanceApproved,
	event.TypeAdvanceRejected,
	event.TypeClosingClosed,
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeMany(notifiedEvents, "requester-notifier", s.Handle)
}

func (s *notificationServiceImpl) Handle(ctx context.Context, evt *event.Event) error {
	recipient := evt.GetPayloadString(event.KeyRequesterID)
	if recipient == "" {
		s.logger.Warnw("Skipping notification, requester unknown", "event_type", evt.Type, "advance_id", evt.AdvanceID)
		return nil
	}

	text := MessageFor(evt)
	if text == "" {
		return nil
	}
	if err := s.notifier.Notify(ctx, recipient, text); err != nil {
		return fmt.Errorf("notify requester: %w", err)
	}
	s.logger.Infow("Requester notified", "event_type", evt.Type, "advance_id", evt.AdvanceID)
	return nil
}

// MessageFor renders the text sent for an event; empty for events that
// are not announced
func MessageFor(evt *event.Event) string {
	number := evt.GetPayloadString(event.KeyAdvanceNumber)
	if number == "" {
		number = evt.AdvanceID
	}

	switch evt.Type {
	case event.TypeLineRejected:
		return fmt.Sprintf("%s numaralı avansınızdaki bir harcama satırı finans tarafından reddedildi.", number)
	case event.TypePartiallyApproved:
		ids := evt.GetPayloadStrings(event.KeyRejectedLineIDs)
		return fmt.Sprintf("%s numaralı avans kapanışınız kısmen onaylandı. Reddedilen satır sayısı: %d.", number, len(ids))
	case event.TypeAdvanceApproved:
		return fmt.Sprintf("%s numaralı avans kapanışınız onaylandı.", number)
	case event.TypeAdvanceRejected:
		reason := strings.TrimSpace(evt.GetPayloadString(event.KeyReason))
		return fmt.Sprintf("%s numaralı avans kapanışınız reddedildi. Gerekçe: %s", number, reason)
	case event.TypeClosingClosed:
		return fmt.Sprintf("%s numaralı avansınız kapatıldı. Kalan bakiye: %s.", number, evt.GetPayloadString(event.KeyRemaining))
	}
	return ""
}
