package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
)

// DeliveryLeadTime is added to the creation time to get the estimated delivery.
const DeliveryLeadTime = 7 * 24 * time.Hour

// wholeCents reports whether d is stored by a NUMERIC(12,2) column without rounding,
// so the persisted total always equals the sum of the persisted lines.
func wholeCents(d decimal.Decimal) bool { return d.Equal(d.Round(2)) }

type Order struct {
	ID                int64              `json:"id"`
	UserID            int64              `json:"userId"`
	AddressID         int64              `json:"addressId"`
	Total             decimal.Decimal    `json:"total"`
	Status            Status             `json:"status"`
	EstimatedDelivery time.Time          `json:"estimatedDelivery"`
	CreatedAt         time.Time          `json:"createdAt"`
	Items             []Item             `json:"items"`
	Payments          []Payment          `json:"payments"`
	Address           *addresses.Address `json:"address,omitempty"`
	User              *Buyer             `json:"user,omitempty"`
}

// Item captures the unit price at order time; it is never re-read from the product.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Colors    string          `json:"colors"`
	Sizes     string          `json:"sizes"`
	Product   *ProductRef     `json:"product,omitempty"`
}

type ProductRef struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Stock    int             `json:"stock"`
}

type Payment struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Buyer is the user projection attached to orders: no password, no role.
type Buyer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

type ItemInput struct {
	ProductID int64           `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
	Colors    []string        `json:"colors"`
	Sizes     []string        `json:"sizes"`
}

type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	Status PaymentStatus   `json:"status"`
}

type PlaceInput struct {
	Status     Status           `json:"status"`
	Items      []ItemInput      `json:"items" validate:"required,min=1,dive"`
	Payments   []PaymentInput   `json:"payments" validate:"dive"`
	AddressID  int64            `json:"addressId"`
	NewAddress *addresses.Input `json:"newAddress"`
}

// Filter selects orders; zero fields are ignored.
type Filter struct {
	ID            int64
	UserID        int64
	Status        Status
	PaymentStatus PaymentStatus
}

var (
	ErrNotFound        = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrStatusChanged   = errors.New("order status changed concurrently")
)

type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}
