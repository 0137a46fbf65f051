package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
	kafkax "github.com/ariefcatur/go-shop-api/internal/kafka"
	"github.com/ariefcatur/go-shop-api/internal/redisx"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	SetJSONOnce(ctx context.Context, key string, v any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// Service owns order placement and the order lifecycle. Cache and Events are optional.
type Service struct {
	Store       Store
	Cache       Cache
	Events      Publisher
	Log         *zap.Logger
	ServiceName string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (in *PlaceInput) check() error {
	if len(in.Items) == 0 {
		return apperr.BadRequest("order must contain at least one item")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return apperr.BadRequest("quantity for product %d must be at least 1", it.ProductID)
		}
		if it.Price.IsNegative() {
			return apperr.BadRequest("price for product %d must not be negative", it.ProductID)
		}
		if !wholeCents(it.Price) {
			return apperr.BadRequest("price for product %d must not have more than 2 decimal places", it.ProductID)
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		return apperr.BadRequest("unknown order status %q", in.Status)
	}
	for _, p := range in.Payments {
		if p.Amount.IsNegative() {
			return apperr.BadRequest("payment amount must not be negative")
		}
		if !wholeCents(p.Amount) {
			return apperr.BadRequest("payment amount must not have more than 2 decimal places")
		}
		if p.Status != "" && !p.Status.Valid() {
			return apperr.BadRequest("unknown payment status %q", p.Status)
		}
	}
	if (in.AddressID == 0) == (in.NewAddress == nil) {
		return apperr.BadRequest("exactly one of addressId or newAddress is required")
	}
	return nil
}

// Place creates an order for p. Stock for every line is reserved and the order,
// its items and payments are written in one transaction: either all of it is
// committed or nothing is. A non-empty idemKey replays the first result;
// replayed reports whether that happened.
func (s *Service) Place(ctx context.Context, p auth.Principal, in PlaceInput, idemKey string) (o *Order, replayed bool, err error) {
	if err := in.check(); err != nil {
		return nil, false, err
	}

	idem := ""
	if idemKey != "" && s.Cache != nil {
		idem = fmt.Sprintf(redisx.KeyIdemOrderCreate, p.UserID, idemKey)
		prev, err := s.claim(ctx, idem)
		if err != nil {
			return nil, false, err
		}
		if prev != nil {
			return prev, true, nil
		}
	}

	now := s.now()
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	o = &Order{
		UserID:            p.UserID,
		Status:            status,
		CreatedAt:         now,
		EstimatedDelivery: now.Add(DeliveryLeadTime),
	}

	err = s.Store.InTx(ctx, func(tx Tx) error {
		ok, err := tx.UserExists(ctx, p.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("User not found")
		}

		if in.AddressID != 0 {
			owner, err := tx.AddressOwner(ctx, in.AddressID)
			if errors.Is(err, addresses.ErrNotFound) || (err == nil && owner != p.UserID) {
				return apperr.NotFound("Address not found or does not belong to user")
			}
			if err != nil {
				return err
			}
			o.AddressID = in.AddressID
		} else {
			a := in.NewAddress.ToAddress(p.UserID)
			if err := tx.CreateAddress(ctx, a); err != nil {
				return err
			}
			o.AddressID = a.ID
		}

		total := decimal.Zero
		o.Items = make([]Item, 0, len(in.Items))
		for _, it := range in.Items {
			if err := tx.ReserveStock(ctx, it.ProductID, it.Quantity); err != nil {
				var short *InsufficientStockError
				switch {
				case errors.Is(err, ErrProductNotFound):
					return apperr.NotFound("Product with ID %d not found", it.ProductID)
				case errors.As(err, &short):
					return apperr.BadRequest("Not enough stock for product %s. Available stock: %d", short.Name, short.Available)
				}
				return err
			}
			total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			o.Items = append(o.Items, Item{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Price,
				Colors:    joinOptions(it.Colors),
				Sizes:     joinOptions(it.Sizes),
			})
		}
		o.Total = total

		o.Payments = make([]Payment, 0, len(in.Payments))
		for _, pi := range in.Payments {
			ps := pi.Status
			if ps == "" {
				ps = PaymentPending
			}
			o.Payments = append(o.Payments, Payment{Amount: pi.Amount, Method: pi.Method, Status: ps})
		}
		return tx.InsertOrder(ctx, o)
	})
	if err != nil {
		s.release(ctx, idem)
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, false, err
		}
		s.log().Error("place order failed", zap.Int64("user_id", p.UserID), zap.Error(err))
		return nil, false, apperr.Internal("An unexpected error occurred while creating the order", err)
	}

	if full, err := s.Store.Get(ctx, o.ID); err == nil {
		o = full
	} else {
		s.log().Warn("reload placed order", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	if idem != "" {
		if err := s.Cache.SetJSON(ctx, idem, idemEntry{OrderID: o.ID}, redisx.TTLIdempotency); err != nil {
			s.log().Warn("store idempotency key", zap.String("key", idem), zap.Error(err))
		}
	}
	s.publishCreated(ctx, o, p.Email)
	return o, false, nil
}

// idemEntry is what an idempotency key holds: OrderID 0 while the first request is still placing.
type idemEntry struct {
	OrderID int64 `json:"orderId"`
}

// claim reserves idem for this request. It returns the earlier order when the key
// already finished, Conflict while another request holds it, and nil when the caller owns it.
func (s *Service) claim(ctx context.Context, idem string) (*Order, error) {
	won, err := s.Cache.SetJSONOnce(ctx, idem, idemEntry{}, redisx.TTLIdemPending)
	if err != nil {
		return nil, apperr.Internal("An unexpected error occurred while creating the order", err)
	}
	if won {
		return nil, nil
	}
	var e idemEntry
	if hit, _ := s.Cache.GetJSON(ctx, idem, &e); hit && e.OrderID != 0 {
		prev, err := s.Store.Get(ctx, e.OrderID)
		if err == nil {
			return prev, nil
		}
		s.log().Warn("idempotent order vanished", zap.Int64("order_id", e.OrderID), zap.Error(err))
	}
	return nil, apperr.Conflict("An order with this Idempotency-Key is already being processed")
}

func (s *Service) release(ctx context.Context, idem string) {
	if idem == "" {
		return
	}
	if err := s.Cache.Del(ctx, idem); err != nil {
		s.log().Warn("release idempotency key", zap.String("key", idem), zap.Error(err))
	}
}

// Get returns an order visible to p: its owner or anyone allowed to read all orders.
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*Order, error) {
	key := fmt.Sprintf(redisx.KeyOrder, id)
	var o *Order
	if s.Cache != nil {
		var cached Order
		if hit, _ := s.Cache.GetJSON(ctx, key, &cached); hit {
			o = &cached
		}
	}
	if o == nil {
		var err error
		o, err = s.Store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		if err != nil {
			return nil, apperr.Internal("load order", err)
		}
		if s.Cache != nil {
			_ = s.Cache.SetJSON(ctx, key, o, redisx.TTLOrderCache)
		}
	}
	if o.UserID != p.UserID && !p.Can(auth.CapReadAllOrders) {
		return nil, apperr.Forbidden("you do not have permission to view this order")
	}
	return o, nil
}

func (s *Service) ListAll(ctx context.Context, p auth.Principal) ([]Order, error) {
	if err := auth.Authorize(p, auth.CapReadAllOrders); err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{})
}

// ListByUser returns userID's orders. Callers may list their own; others need read-all.
func (s *Service) ListByUser(ctx context.Context, p auth.Principal, userID int64) ([]Order, error) {
	if userID != p.UserID {
		if err := auth.Authorize(p, auth.CapReadAllOrders); err != nil {
			return nil, err
		}
	}
	return s.list(ctx, Filter{UserID: userID})
}

// ListByStatus returns the caller's orders whose status is exactly status.
func (s *Service) ListByStatus(ctx context.Context, p auth.Principal, status string) ([]Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{UserID: p.UserID, Status: st})
}

// ListByPaymentStatus returns the caller's orders having at least one payment in status.
func (s *Service) ListByPaymentStatus(ctx context.Context, p auth.Principal, status string) ([]Order, error) {
	st, err := ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{UserID: p.UserID, PaymentStatus: st})
}

func (s *Service) list(ctx context.Context, f Filter) ([]Order, error) {
	out, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list orders", err)
	}
	return out, nil
}

// UpdateStatus applies a legal lifecycle transition. Only callers allowed to
// manage orders may do it.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, id int64, status string) (*Order, error) {
	if err := auth.Authorize(p, auth.CapManageOrders); err != nil {
		return nil, err
	}
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.Store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal("load order", err)
	}
	from := o.Status
	if !CanTransition(from, to) {
		return nil, apperr.Conflict("cannot change order status from %s to %s", from, to)
	}

	switch err := s.Store.UpdateStatus(ctx, id, from, to); {
	case errors.Is(err, ErrNotFound):
		return nil, apperr.NotFound("Order not found")
	case errors.Is(err, ErrStatusChanged):
		return nil, apperr.Conflict("order status changed concurrently, retry")
	case err != nil:
		return nil, apperr.Internal("update order status", err)
	}
	o.Status = to
	s.invalidate(ctx, id)

	email := ""
	if o.User != nil {
		email = o.User.Email
	}
	s.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{
		OrderID: o.ID, UserID: o.UserID, UserEmail: email, From: from, To: to,
	})
	return o, nil
}

// MarkPaymentsStatus records the outcome of an external payment for every payment of the order.
func (s *Service) MarkPaymentsStatus(ctx context.Context, orderID int64, st PaymentStatus) error {
	if !st.Valid() {
		return apperr.BadRequest("unknown payment status %q", st)
	}
	err := s.Store.SetPaymentsStatus(ctx, orderID, st)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Order not found")
	}
	if err != nil {
		return apperr.Internal("update payments", err)
	}
	s.invalidate(ctx, orderID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)); err != nil {
		s.log().Warn("drop order cache", zap.Int64("order_id", id), zap.Error(err))
	}
}

func (s *Service) publishCreated(ctx context.Context, o *Order, email string) {
	items := make([]ItemPrice, 0, len(o.Items))
	for _, it := range o.Items {
		ip := ItemPrice{ProductID: it.ProductID, Qty: it.Quantity, Price: it.Price}
		if it.Product != nil {
			ip.Name = it.Product.Name
		}
		items = append(items, ip)
	}
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:           o.ID,
		UserID:            o.UserID,
		UserEmail:         email,
		Items:             items,
		Total:             o.Total,
		EstimatedDelivery: o.EstimatedDelivery,
	})
}

func (s *Service) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		TraceID:       traceID(ctx),
		CorrelationID: fmt.Sprint(orderID),
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Events.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// traceID carries the HTTP request id into emitted events.
func traceID(ctx context.Context) string { return middleware.GetReqID(ctx) }
