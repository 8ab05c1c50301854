package kafka

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/doceeser/orders-dashboard/internal/alerts"
	"github.com/doceeser/orders-dashboard/internal/dashboard/application"
	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	orders []domain.Order
	lists  int
}

func (f *fakeStore) List(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]domain.Order(nil), f.orders...), nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error) {
	return domain.Order{}, nil
}

type fakePusher struct {
	mu     sync.Mutex
	frames []alerts.Frame
}

func (f *fakePusher) Broadcast(fr alerts.Frame) {
	f.mu.Lock()
	f.frames = append(f.frames, fr)
	f.mu.Unlock()
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, o domain.Order) error { return nil }

func newTestConsumer(store *fakeStore, push *fakePusher) *Consumer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := application.NewController(log, store, noopSender{}, time.UTC)
	return &Consumer{
		log:    log,
		ctrl:   ctrl,
		alerts: alerts.NewDispatcher(log, push, ctrl, noopSender{}),
		tracer: otel.Tracer("test"),
	}
}

func TestHandleEvent_InsertRunsAlertsAndReconciles(t *testing.T) {
	store := &fakeStore{orders: []domain.Order{{
		ID:        "7",
		Status:    domain.StatusNew,
		CreatedAt: time.Now(),
		Total:     decimal.RequireFromString("45.5"),
	}}}
	push := &fakePusher{}
	c := newTestConsumer(store, push)

	c.handleEvent(context.Background(),
		[]byte(`{"kind":"insert","record":{"id":7,"status":"novo","total":45.5}}`))

	require.Len(t, push.frames, 1)
	assert.Equal(t, alerts.FrameNotification, push.frames[0].Type)
	assert.Equal(t, 1, store.lists, "every event triggers a full refetch")
	assert.Len(t, c.ctrl.Snapshot().Orders, 1)
}

func TestHandleEvent_UpdateReconcilesWithoutAlerts(t *testing.T) {
	store := &fakeStore{}
	push := &fakePusher{}
	c := newTestConsumer(store, push)

	c.handleEvent(context.Background(),
		[]byte(`{"kind":"update","record":{"id":7,"status":"pronto"}}`))

	assert.Empty(t, push.frames, "only inserts alert")
	assert.Equal(t, 1, store.lists)
}

func TestHandleEvent_MalformedPayloadStillReconciles(t *testing.T) {
	store := &fakeStore{}
	c := newTestConsumer(store, &fakePusher{})

	c.handleEvent(context.Background(), []byte(`not json at all`))

	assert.Equal(t, 1, store.lists, "authoritative state comes from the refetch")
}

func TestHandleEvent_InsertWithoutRecordSkipsAlerts(t *testing.T) {
	store := &fakeStore{}
	push := &fakePusher{}
	c := newTestConsumer(store, push)

	c.handleEvent(context.Background(), []byte(`{"kind":"insert"}`))

	assert.Empty(t, push.frames)
	assert.Equal(t, 1, store.lists)
}
