package dispatcher

import (
	"context"

	"github.com/vitingo/advance-workflow/internal/domain/event"
)

// Handler reacts to a domain event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string     `json:"name"`
	EventType event.Type `json:"event_type"`
	handler   Handler
}
