package payments

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/orders"
)

type Gateway interface {
	CreatePayment(ctx context.Context, orderID string, amount decimal.Decimal) (*Redirect, error)
	RetrieveOrderPayment(ctx context.Context, orderID string) (*Transaction, error)
}

type Orders interface {
	Get(ctx context.Context, p auth.Principal, id int64) (*orders.Order, error)
	MarkPaymentsStatus(ctx context.Context, orderID int64, st orders.PaymentStatus) error
}

type CreateInput struct {
	OrderID int64           `json:"orderId" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type Service struct {
	Gateway Gateway
	Orders  Orders
	Log     *zap.Logger
}

// Create opens a gateway payment for one of the caller's orders. A zero amount charges the order total.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Redirect, error) {
	o, err := s.Orders.Get(ctx, p, in.OrderID)
	if err != nil {
		return nil, err
	}
	amount := in.Amount
	if amount.IsZero() {
		amount = o.Total
	}
	if !amount.IsPositive() {
		return nil, apperr.BadRequest("amount must be positive")
	}
	r, err := s.Gateway.CreatePayment(ctx, strconv.FormatInt(o.ID, 10), amount)
	if err != nil {
		s.Log.Error("moncash create payment", zap.Int64("order_id", o.ID), zap.Error(err))
		return nil, apperr.Internal("Payment creation failed", err)
	}
	return r, nil
}

// Capture asks the gateway how the order's payment ended and records it on the order.
func (s *Service) Capture(ctx context.Context, p auth.Principal, orderID int64) (*Transaction, error) {
	if _, err := s.Orders.Get(ctx, p, orderID); err != nil {
		return nil, err
	}
	tx, err := s.Gateway.RetrieveOrderPayment(ctx, strconv.FormatInt(orderID, 10))
	if err != nil {
		s.Log.Error("moncash retrieve payment", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, apperr.Internal("Payment capture failed", err)
	}

	st := orders.PaymentFailed
	if tx.Successful() {
		st = orders.PaymentCompleted
	}
	if err := s.Orders.MarkPaymentsStatus(ctx, orderID, st); err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		s.Log.Warn("captured order has no payment records", zap.Int64("order_id", orderID))
	}
	return tx, nil
}
