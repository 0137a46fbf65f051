package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-shop-api/internal/kafka"
	"github.com/ariefcatur/go-shop-api/internal/mail"
	"github.com/ariefcatur/go-shop-api/internal/orders"
	"github.com/ariefcatur/go-shop-api/internal/redisx"
)

type Mailer interface {
	SendOrderConfirmation(to string, sum mail.OrderSummary) error
	SendOrderStatus(to string, orderID int64, status string) error
}

type Dedup interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	Mail        Mailer
	Dedup       Dedup
	ServiceName string
	Log         *zap.Logger
}

// Handle is the consumer handler for every order topic. Each event id is mailed at most once;
// a failed send releases the id so the redelivery can try again.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventOrderCreated && env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := s.Dedup.MarkOnce(ctx, key, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		s.Log.Debug("duplicate event skipped", zap.String("event_id", env.EventID))
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		err = s.orderCreated(env)
	case orders.EventOrderStatusChanged:
		err = s.statusChanged(env)
	}
	if err != nil {
		_ = s.Dedup.Del(ctx, key)
		return err
	}
	return nil
}

func (s *Service) orderCreated(env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.UserEmail == "" {
		s.Log.Warn("order created without buyer email", zap.Int64("order_id", p.OrderID))
		return nil
	}
	sum := mail.OrderSummary{
		OrderID:           p.OrderID,
		Total:             p.Total.StringFixed(2),
		EstimatedDelivery: p.EstimatedDelivery,
	}
	for _, it := range p.Items {
		name := it.Name
		if name == "" {
			name = fmt.Sprintf("Product #%d", it.ProductID)
		}
		sum.Lines = append(sum.Lines, mail.SummaryLine{Name: name, Qty: it.Qty, Price: it.Price.StringFixed(2)})
	}
	return s.Mail.SendOrderConfirmation(p.UserEmail, sum)
}

func (s *Service) statusChanged(env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.UserEmail == "" {
		s.Log.Warn("status change without buyer email", zap.Int64("order_id", p.OrderID))
		return nil
	}
	return s.Mail.SendOrderStatus(p.UserEmail, p.OrderID, string(p.To))
}
