package events

import (
	"time"

	"github.com/google/uuid"
)

// Wire names carried in the event-type header. They match the names the
// .NET services put on the same topics.
const (
	TypeOrderCreated     = "OrderCreatedEvent"
	TypePaymentProcessed = "PaymentProcessedEvent"
	TypeStockReserved    = "StockReservedEvent"
	TypeStockFailed      = "StockFailedEvent"
)

// IntegrationEvent is implemented by every event broadcast between services.
type IntegrationEvent interface {
	Meta() *Envelope
	EventType() string
}

// Envelope carries the identity fields shared by all integration events.
// It is embedded in every concrete event so the fields sit at the top level
// of the JSON document.
type Envelope struct {
	EventID       uuid.UUID `json:"eventId"`
	OccurredOn    time.Time `json:"occurredOn"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// NewEnvelope stamps a fresh event id and the current UTC time.
func NewEnvelope(correlationID string) Envelope {
	return Envelope{
		EventID:       uuid.New(),
		OccurredOn:    time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

func (e *Envelope) Meta() *Envelope { return e }

// Stamp fills a zero EventID or OccurredOn in place. Events built with a
// literal instead of a constructor are therefore still publishable.
func Stamp(evt IntegrationEvent) {
	m := evt.Meta()
	if m.EventID == uuid.Nil {
		m.EventID = uuid.New()
	}
	if m.OccurredOn.IsZero() {
		m.OccurredOn = time.Now().UTC()
	}
}
