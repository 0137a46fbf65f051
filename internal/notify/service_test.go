package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-shop-api/internal/kafka"
	"github.com/ariefcatur/go-shop-api/internal/mail"
	"github.com/ariefcatur/go-shop-api/internal/orders"
	"github.com/ariefcatur/go-shop-api/internal/redisx"
)

type inbox struct {
	orders   []mail.OrderSummary
	statuses []string
	err      error
}

func (i *inbox) SendOrderConfirmation(_ string, sum mail.OrderSummary) error {
	if i.err != nil {
		return i.err
	}
	i.orders = append(i.orders, sum)
	return nil
}

func (i *inbox) SendOrderStatus(_ string, _ int64, status string) error {
	if i.err != nil {
		return i.err
	}
	i.statuses = append(i.statuses, status)
	return nil
}

func newService(t *testing.T) (*Service, *inbox) {
	t.Helper()
	mr := miniredis.RunT(t)
	box := &inbox{}
	return &Service{
		Mail:        box,
		Dedup:       &redisx.Cache{R: redisx.New(mr.Addr())},
		ServiceName: "notifier",
		Log:         zap.NewNop(),
	}, box
}

func message(eventID, eventType string, payload any) kafkago.Message {
	return kafkago.Message{Value: kafkax.MustMarshal(orders.Envelope{
		EventID:   eventID,
		EventType: eventType,
		Payload:   kafkax.MustMarshal(payload),
	})}
}

var created = orders.OrderCreatedPayload{
	OrderID:           5,
	UserEmail:         "marie@example.ht",
	Items:             []orders.ItemPrice{{ProductID: 1, Name: "Kasav", Qty: 2, Price: decimal.RequireFromString("10.5")}},
	Total:             decimal.NewFromInt(21),
	EstimatedDelivery: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
}

func TestOrderCreatedSendsOnce(t *testing.T) {
	svc, box := newService(t)
	ctx := context.Background()
	m := message("ev-1", orders.EventOrderCreated, created)

	require.NoError(t, svc.Handle(ctx, m))
	require.NoError(t, svc.Handle(ctx, m))

	require.Len(t, box.orders, 1)
	assert.Equal(t, "21.00", box.orders[0].Total)
	assert.Equal(t, "10.50", box.orders[0].Lines[0].Price)
}

func TestStatusChangedSendsNewStatus(t *testing.T) {
	svc, box := newService(t)

	err := svc.Handle(context.Background(), message("ev-2", orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: 5, UserEmail: "marie@example.ht", From: orders.StatusPending, To: orders.StatusCompleted,
	}))

	require.NoError(t, err)
	assert.Equal(t, []string{"COMPLETED"}, box.statuses)
}

func TestFailedSendIsRetried(t *testing.T) {
	svc, box := newService(t)
	ctx := context.Background()
	m := message("ev-3", orders.EventOrderCreated, created)

	box.err = errors.New("smtp down")
	assert.Error(t, svc.Handle(ctx, m))

	box.err = nil
	require.NoError(t, svc.Handle(ctx, m))
	assert.Len(t, box.orders, 1)
}

func TestIgnoresUnknownEventsAndRejectsGarbage(t *testing.T) {
	svc, box := newService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Handle(ctx, message("ev-4", "SomethingElse", struct{}{})))
	assert.Error(t, svc.Handle(ctx, kafkago.Message{Value: []byte("{")}))
	assert.Empty(t, box.orders)
}
