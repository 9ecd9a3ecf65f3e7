package payment

import (
	"context"
	"testing"

	"github.com/pc7stha/ShopVerse/internal/events"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleOrderCreated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := observability.NewMetrics()
	handler := NewHandler(zap.New(core), metrics)

	order := events.NewOrderCreated(uuid.New(), "user-7", "corr-7", []events.OrderItem{
		{ProductID: "mouse-001", Quantity: 2, UnitPrice: 25},
	})

	require.NoError(t, handler.HandleOrderCreated(context.Background(), order))

	processing := logs.FilterMessage("💳 Processing payment").All()
	require.Len(t, processing, 1)
	fields := processing[0].ContextMap()
	assert.Equal(t, order.OrderID.String(), fields["order_id"])
	assert.Equal(t, "user-7", fields["user_id"])
	assert.Equal(t, 50.0, fields["amount"])
	assert.Equal(t, "USD", fields["currency"])
	assert.Equal(t, "corr-7", fields["correlation_id"])

	assert.Equal(t, 1, logs.FilterMessage("✅ Payment initiated").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PaymentsInitiated))
}
