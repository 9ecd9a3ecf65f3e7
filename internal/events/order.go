package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DefaultCurrency is applied when an order does not name one.
const DefaultCurrency = "USD"

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

// OrderCreated is published by the order service once an order is accepted.
// Inventory reserves stock for it and Payment initiates a charge.
type OrderCreated struct {
	Envelope
	OrderID     uuid.UUID   `json:"orderId" validate:"required"`
	UserID      string      `json:"userId" validate:"required"`
	TotalAmount float64     `json:"totalAmount" validate:"gte=0"`
	Currency    string      `json:"currency" validate:"required,len=3"`
	Items       []OrderItem `json:"items" validate:"dive"`
}

// NewOrderCreated builds an OrderCreated whose total is computed from items.
func NewOrderCreated(orderID uuid.UUID, userID, correlationID string, items []OrderItem) *OrderCreated {
	if items == nil {
		items = []OrderItem{}
	}
	return &OrderCreated{
		Envelope:    NewEnvelope(correlationID),
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: TotalAmount(items),
		Currency:    DefaultCurrency,
		Items:       items,
	}
}

func (*OrderCreated) EventType() string { return TypeOrderCreated }

// UnmarshalJSON applies DefaultCurrency when the payload has no currency, so
// validation only rejects a currency that is present and malformed.
func (o *OrderCreated) UnmarshalJSON(data []byte) error {
	type plain OrderCreated
	p := plain{Currency: DefaultCurrency}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	*o = OrderCreated(p)
	return nil
}

// TotalAmount sums quantity times unit price over items.
func TotalAmount(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}
