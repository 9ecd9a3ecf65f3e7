package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pc7stha/ShopVerse/internal/events"
	platformkafka "github.com/pc7stha/ShopVerse/internal/platform/kafka"
	"github.com/pc7stha/ShopVerse/internal/platform/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	messages chan kafka.Message
	errs     chan error

	mu     sync.Mutex
	acked  []int64
	closed bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{messages: make(chan kafka.Message, 16), errs: make(chan error, 16)}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case err := <-f.errs:
		return kafka.Message{}, err
	case msg := <-f.messages:
		return msg, nil
	}
}

func (f *fakeFetcher) Ack(_ context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, msg.Offset)
	return nil
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFetcher) ackedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.acked...)
}

func (f *fakeFetcher) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type recordingSink struct {
	mu      sync.Mutex
	offsets []int64
	reasons []error
}

func (s *recordingSink) Send(_ context.Context, msg kafka.Message, reason error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, msg.Offset)
	s.reasons = append(s.reasons, reason)
	return nil
}

func (s *recordingSink) snapshot() ([]int64, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.offsets...), append([]error(nil), s.reasons...)
}

func orderMessage(t *testing.T, offset int64, eventType string, order *events.OrderCreated) kafka.Message {
	t.Helper()
	value, err := json.Marshal(order)
	require.NoError(t, err)
	return kafka.Message{
		Topic:  "orders",
		Offset: offset,
		Key:    []byte(order.EventID.String()),
		Value:  value,
		Headers: []kafka.Header{
			{Key: platformkafka.HeaderEventType, Value: []byte(eventType)},
			{Key: platformkafka.HeaderCorrelationID, Value: []byte(order.CorrelationID)},
		},
	}
}

type harness struct {
	fetcher *fakeFetcher
	sink    *recordingSink
	metrics *observability.Metrics
	cancel  context.CancelFunc
	done    chan error
}

func startConsumer(t *testing.T, cfg ConsumerConfig, handler HandlerFunc[events.OrderCreated]) *harness {
	t.Helper()
	h := &harness{
		fetcher: newFakeFetcher(),
		sink:    &recordingSink{},
		metrics: observability.NewMetrics(),
		done:    make(chan error, 1),
	}
	consumer := NewConsumer(cfg, h.fetcher, handler, h.sink, zap.NewNop(), h.metrics)
	consumer.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- consumer.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.True(t, h.fetcher.isClosed())
}

func ordersConfig() ConsumerConfig {
	return ConsumerConfig{Topic: "orders", Group: "inventory-service", EventType: events.TypeOrderCreated, Buffer: 4}
}

func TestConsumer_HandlesMessagesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	handler := func(_ context.Context, order *events.OrderCreated) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, order.UserID)
		return nil
	}
	h := startConsumer(t, ordersConfig(), handler)

	for i, user := range []string{"alice", "bob", "carol"} {
		order := events.NewOrderCreated(uuidFor(i), user, "corr", nil)
		h.fetcher.messages <- orderMessage(t, int64(i), events.TypeOrderCreated, order)
	}

	assert.Eventually(t, func() bool { return len(h.fetcher.ackedOffsets()) == 3 }, time.Second, 5*time.Millisecond)
	h.stop(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alice", "bob", "carol"}, seen)
	assert.Equal(t, []int64{0, 1, 2}, h.fetcher.ackedOffsets())
	assert.Equal(t, 3.0, testutil.ToFloat64(
		h.metrics.EventsConsumed.WithLabelValues("orders", "inventory-service", observability.OutcomeSuccess)))
}

func TestConsumer_MalformedGoesToDeadLetter(t *testing.T) {
	called := false
	h := startConsumer(t, ordersConfig(), func(context.Context, *events.OrderCreated) error {
		called = true
		return nil
	})

	h.fetcher.messages <- kafka.Message{Topic: "orders", Offset: 7, Value: []byte("{broken")}

	assert.Eventually(t, func() bool { return len(h.fetcher.ackedOffsets()) == 1 }, time.Second, 5*time.Millisecond)
	h.stop(t)

	assert.False(t, called)
	offsets, reasons := h.sink.snapshot()
	assert.Equal(t, []int64{7}, offsets)
	require.Len(t, reasons, 1)
	assert.ErrorIs(t, reasons[0], ErrMalformedMessage)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DeadLetters.WithLabelValues("orders")))
}

func TestConsumer_HandlerErrorGoesToDeadLetter(t *testing.T) {
	boom := errors.New("boom")
	h := startConsumer(t, ordersConfig(), func(context.Context, *events.OrderCreated) error { return boom })

	h.fetcher.messages <- orderMessage(t, 3, events.TypeOrderCreated, sampleOrder())

	assert.Eventually(t, func() bool { return len(h.fetcher.ackedOffsets()) == 1 }, time.Second, 5*time.Millisecond)
	h.stop(t)

	_, reasons := h.sink.snapshot()
	require.Len(t, reasons, 1)
	assert.ErrorIs(t, reasons[0], boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.EventsConsumed.WithLabelValues("orders", "inventory-service", observability.OutcomeHandlerError)))
}

func TestConsumer_SkipsOtherEventTypes(t *testing.T) {
	calls := 0
	h := startConsumer(t, ordersConfig(), func(context.Context, *events.OrderCreated) error {
		calls++
		return nil
	})

	h.fetcher.messages <- orderMessage(t, 1, "OrderCancelledEvent", sampleOrder())

	assert.Eventually(t, func() bool { return len(h.fetcher.ackedOffsets()) == 1 }, time.Second, 5*time.Millisecond)
	h.stop(t)

	assert.Zero(t, calls)
	offsets, _ := h.sink.snapshot()
	assert.Empty(t, offsets)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		h.metrics.EventsConsumed.WithLabelValues("orders", "inventory-service", observability.OutcomeSkipped)))
}

func TestConsumer_RetriesFetchErrors(t *testing.T) {
	handled := make(chan struct{}, 1)
	h := startConsumer(t, ordersConfig(), func(context.Context, *events.OrderCreated) error {
		handled <- struct{}{}
		return nil
	})

	h.fetcher.errs <- errors.New("leader not available")
	h.fetcher.errs <- errors.New("leader not available")
	h.fetcher.messages <- orderMessage(t, 0, events.TypeOrderCreated, sampleOrder())

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("message was not handled after fetch errors")
	}
	h.stop(t)
}

func TestConsumer_HandlerFinishesOnShutdown(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var handlerCtxErr error
	h := startConsumer(t, ordersConfig(), func(ctx context.Context, _ *events.OrderCreated) error {
		close(started)
		<-release
		handlerCtxErr = ctx.Err()
		return nil
	})

	h.fetcher.messages <- orderMessage(t, 0, events.TypeOrderCreated, sampleOrder())
	<-started
	h.cancel()
	close(release)
	h.stop(t)

	assert.NoError(t, handlerCtxErr)
	assert.Equal(t, []int64{0}, h.fetcher.ackedOffsets())
}

func TestConsumer_CancelDuringWarmUp(t *testing.T) {
	cfg := ordersConfig()
	cfg.WarmUpDelay = time.Hour
	calls := 0
	h := startConsumer(t, cfg, func(context.Context, *events.OrderCreated) error {
		calls++
		return nil
	})
	h.fetcher.messages <- orderMessage(t, 0, events.TypeOrderCreated, sampleOrder())

	h.stop(t)
	assert.Zero(t, calls)
	assert.Empty(t, h.fetcher.ackedOffsets())
}

func TestConsumer_ShutdownAcksOnlyHandledMessages(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var handled []int64
	cfg := ordersConfig()
	cfg.Buffer = 8

	h := startConsumer(t, cfg, func(_ context.Context, order *events.OrderCreated) error {
		<-release
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, int64(order.TotalAmount))
		return nil
	})

	for i := 0; i < 12; i++ {
		order := events.NewOrderCreated(uuidFor(i), "user", "corr", []events.OrderItem{
			{ProductID: "mouse-001", Quantity: 1, UnitPrice: float64(i)},
		})
		h.fetcher.messages <- orderMessage(t, int64(i), events.TypeOrderCreated, order)
	}

	// Let the pump fill the buffer behind the blocked handler.
	assert.Eventually(t, func() bool { return len(h.fetcher.messages) <= 2 }, time.Second, 5*time.Millisecond)
	h.cancel()
	close(release)
	h.stop(t)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{0}, handled)
	assert.Equal(t, []int64{0}, h.fetcher.ackedOffsets())
}
