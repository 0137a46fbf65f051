package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

type Cart struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"userId"`
	Items  []Item          `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type Item struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	Stock     int             `json:"stock"`
}

type AddInput struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type UpdateInput struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

var ErrNotFound = errors.New("not found")

type Store interface {
	ByUser(ctx context.Context, userID int64) (*Cart, error)
	Ensure(ctx context.Context, userID int64) (cartID int64, err error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	// AddItem adds qty to the existing line for the product, or creates it.
	AddItem(ctx context.Context, cartID, productID int64, qty int) error
	SetQuantity(ctx context.Context, userID, itemID int64, qty int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type Service struct {
	Store Store
}

func (s *Service) Get(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.Store.ByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Cart not found")
	}
	if err != nil {
		return nil, apperr.Internal("load cart", err)
	}
	c.Total = decimal.Zero
	for _, it := range c.Items {
		c.Total = c.Total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return c, nil
}

func (s *Service) Add(ctx context.Context, userID int64, in AddInput) (*Cart, error) {
	if in.Quantity < 1 {
		return nil, apperr.BadRequest("quantity must be at least 1")
	}
	ok, err := s.Store.ProductExists(ctx, in.ProductID)
	if err != nil {
		return nil, apperr.Internal("add to cart", err)
	}
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	cartID, err := s.Store.Ensure(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("add to cart", err)
	}
	if err := s.Store.AddItem(ctx, cartID, in.ProductID, in.Quantity); err != nil {
		return nil, apperr.Internal("add to cart", err)
	}
	return s.Get(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, itemID int64, in UpdateInput) (*Cart, error) {
	if in.Quantity < 1 {
		return nil, apperr.BadRequest("quantity must be at least 1")
	}
	if err := s.itemErr(s.Store.SetQuantity(ctx, userID, itemID, in.Quantity), "update cart item"); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, itemID int64) (*Cart, error) {
	if err := s.itemErr(s.Store.RemoveItem(ctx, userID, itemID), "remove cart item"); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.Store.Clear(ctx, userID); err != nil {
		return apperr.Internal("clear cart", err)
	}
	return nil
}

func (s *Service) itemErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("Item not found in your cart")
	default:
		return apperr.Internal(op, err)
	}
}
