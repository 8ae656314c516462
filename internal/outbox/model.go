package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	AggregateOrder   = "order"
	EventOrderPlaced = "order.created"
)

// Event is a fact recorded in the same transaction as the change it
// describes, waiting to be published.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewEvent encodes payload as JSON under a time ordered ULID.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}

	return &Event{
		ID:            ulid.Make().String(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
