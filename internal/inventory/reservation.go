package inventory

import (
	"context"
	"fmt"

	"github.com/pc7stha/ShopVerse/internal/config"
	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/messaging"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	// WarehouseLocation is the only warehouse stock is reserved from.
	WarehouseLocation = "Warehouse-A"

	InsufficientStockReason = "Insufficient stock for one or more items"
)

// Reservation outcome labels.
const (
	outcomeReserved     = "reserved"
	outcomeInsufficient = "insufficient"
	outcomeRolledBack   = "rolled_back"
)

// Outcome is the result of applying one order to the store. Reserved is
// empty whenever Failed is not.
type Outcome struct {
	Reserved []events.ReservedItem
	Failed   []events.FailedItem
}

func (o Outcome) Succeeded() bool { return len(o.Failed) == 0 }

// Reserver reserves stock for incoming orders and announces the result on
// the inventory topic. It expects to be driven by a single consumer.
type Reserver struct {
	store     *Store
	publisher messaging.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracer    observability.Tracer
}

func NewReserver(store *Store, publisher messaging.Publisher, logger *zap.Logger, metrics *observability.Metrics) *Reserver {
	r := &Reserver{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("shopverse/inventory"),
	}
	r.recordLevels(store.Snapshot())
	return r
}

// Reserve applies items to the store all-or-nothing. Items are taken in
// order, so a product listed twice is checked against the already reduced
// level. If any item cannot be satisfied everything taken so far is put
// back and the store ends up exactly as it was.
func (r *Reserver) Reserve(items []events.OrderItem) Outcome {
	reserved := make([]events.ReservedItem, 0, len(items))
	var failed []events.FailedItem

	for _, item := range items {
		available, ok := r.store.Take(item.ProductID, item.Quantity)
		if !ok {
			failed = append(failed, events.FailedItem{
				ProductID:         item.ProductID,
				RequestedQuantity: item.Quantity,
				AvailableQuantity: available,
			})
			continue
		}
		reserved = append(reserved, events.ReservedItem{
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			WarehouseLocation: WarehouseLocation,
		})
	}

	if len(failed) > 0 {
		r.release(reserved)
		return Outcome{Reserved: []events.ReservedItem{}, Failed: failed}
	}
	return Outcome{Reserved: reserved}
}

func (r *Reserver) release(items []events.ReservedItem) {
	for _, item := range items {
		r.store.Restore(item.ProductID, item.Quantity)
	}
}

// HandleOrderCreated reserves stock for order and publishes StockReserved or
// StockFailed carrying the order's correlation id. Insufficient stock is not
// an error. If StockReserved cannot be published the reservation is undone
// before the error is returned, so stock only moves when the event went out.
func (r *Reserver) HandleOrderCreated(ctx context.Context, order *events.OrderCreated) error {
	ctx, span := r.tracer.Start(ctx, "inventory.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.OrderID.String()),
		attribute.Int("order.items", len(order.Items)),
	)

	logger := observability.LoggerFromContext(ctx, r.logger).With(
		zap.String("order_id", order.OrderID.String()),
		zap.String("correlation_id", order.CorrelationID),
	)
	logger.Info("🔍 Checking inventory for order", zap.Int("items", len(order.Items)))

	outcome := r.Reserve(order.Items)
	defer r.recordItemLevels(order.Items)

	if !outcome.Succeeded() {
		span.SetAttributes(attribute.String("inventory.status", outcomeInsufficient))
		stockFailed := &events.StockFailed{
			Envelope:    events.NewEnvelope(order.CorrelationID),
			OrderID:     order.OrderID,
			Reason:      InsufficientStockReason,
			FailedItems: outcome.Failed,
		}
		if _, err := r.publisher.Publish(ctx, config.InventoryTopic, stockFailed); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			return fmt.Errorf("failed to publish stock failure for order %s: %w", order.OrderID, err)
		}
		r.metrics.Reservations.WithLabelValues(outcomeInsufficient).Inc()
		logger.Warn("⚠️ Insufficient stock", zap.Any("failed_items", outcome.Failed))
		return nil
	}

	stockReserved := &events.StockReserved{
		Envelope:      events.NewEnvelope(order.CorrelationID),
		OrderID:       order.OrderID,
		ReservedItems: outcome.Reserved,
	}
	if _, err := r.publisher.Publish(ctx, config.InventoryTopic, stockReserved); err != nil {
		r.release(outcome.Reserved)
		r.metrics.Reservations.WithLabelValues(outcomeRolledBack).Inc()
		span.SetAttributes(attribute.String("inventory.status", outcomeRolledBack))
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		logger.Error("❌ Reservation rolled back", zap.Error(err))
		return fmt.Errorf("reservation for order %s rolled back: %w", order.OrderID, err)
	}

	r.metrics.Reservations.WithLabelValues(outcomeReserved).Inc()
	span.SetAttributes(attribute.String("inventory.status", outcomeReserved))
	span.SetStatus(codes.Ok, "Inventory successfully reserved")
	logger.Info("✅ Inventory reserved", zap.Int("reserved_items", len(outcome.Reserved)))
	return nil
}

func (r *Reserver) recordItemLevels(items []events.OrderItem) {
	levels := make(map[string]int, len(items))
	for _, item := range items {
		levels[item.ProductID] = r.store.Available(item.ProductID)
	}
	r.recordLevels(levels)
}

func (r *Reserver) recordLevels(levels map[string]int) {
	for productID, available := range levels {
		r.metrics.StockLevel.WithLabelValues(productID).Set(float64(available))
	}
}
