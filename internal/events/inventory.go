package events

import "github.com/google/uuid"

// ReservedItem is stock taken out of a warehouse for an order.
type ReservedItem struct {
	ProductID         string `json:"productId"`
	Quantity          int    `json:"quantity"`
	WarehouseLocation string `json:"warehouseLocation"`
}

// FailedItem is an order line that could not be covered by available stock.
type FailedItem struct {
	ProductID         string `json:"productId"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
}

// StockReserved is published when every line of an order was reserved.
type StockReserved struct {
	Envelope
	OrderID       uuid.UUID      `json:"orderId" validate:"required"`
	ReservedItems []ReservedItem `json:"reservedItems"`
}

func (*StockReserved) EventType() string { return TypeStockReserved }

// StockFailed is published when at least one line could not be reserved.
// None of the order's lines stay reserved in that case.
type StockFailed struct {
	Envelope
	OrderID     uuid.UUID    `json:"orderId" validate:"required"`
	Reason      string       `json:"reason" validate:"required"`
	FailedItems []FailedItem `json:"failedItems"`
}

func (*StockFailed) EventType() string { return TypeStockFailed }
