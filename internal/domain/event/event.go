package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and subscribers
const (
	KeyAdvanceNumber   = "advance_number"
	KeyRequesterID     = "requester_id"
	KeyRequesterName   = "requester_name"
	KeyLineID          = "line_id"
	KeyReason          = "reason"
	KeyRejectedLineIDs = "rejected_line_ids"
	KeyTotalExpenses   = "total_expenses"
	KeyRemaining       = "remaining_balance"
)

// Event is a domain event about one advance
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	AdvanceID     string                 `json:"advance_id"`
	Actor         string                 `json:"actor"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event with a fresh id; the correlation id starts a new chain
func NewEvent(eventType Type, advanceID, actor string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, advanceID, actor, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to an existing correlation chain
func NewEventWithCorrelation(eventType Type, advanceID, actor string, payload map[string]interface{}, correlationID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AdvanceID:     advanceID,
		Actor:         actor,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of e with key set; e is left untouched
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// GetPayloadStrings retrieves a string list from the payload
func (e *Event) GetPayloadStrings(key string) []string {
	switch v := e.Payload[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
