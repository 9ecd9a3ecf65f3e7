package events

import "github.com/google/uuid"

const (
	PaymentCompleted = "Completed"
	PaymentFailed    = "Failed"
)

// PaymentProcessed reports the result of charging an order.
type PaymentProcessed struct {
	Envelope
	PaymentID            uuid.UUID `json:"paymentId" validate:"required"`
	OrderID              uuid.UUID `json:"orderId" validate:"required"`
	UserID               string    `json:"userId" validate:"required"`
	Amount               float64   `json:"amount" validate:"gte=0"`
	Currency             string    `json:"currency" validate:"required,len=3"`
	Status               string    `json:"status" validate:"oneof=Completed Failed"`
	PaymentMethod        string    `json:"paymentMethod,omitempty"`
	TransactionReference string    `json:"transactionReference,omitempty"`
}

func (*PaymentProcessed) EventType() string { return TypePaymentProcessed }
