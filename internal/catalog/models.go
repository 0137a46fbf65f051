package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Products  []Product `json:"products,omitempty"`
}

type CategoryInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ImageURL string `json:"imageUrl"`
}

type Product struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Stock       int                 `json:"stock"`
	Discount    decimal.NullDecimal `json:"discount"`
	Offer       bool                `json:"offer"`
	ImageURL    string              `json:"imageUrl"`
	ImageURLs   []string            `json:"imageUrls"`
	Colors      []string            `json:"colors"`
	Sizes       []string            `json:"sizes"`
	Features    []string            `json:"features"`
	CategoryID  int64               `json:"categoryId"`
	CreatedBy   int64               `json:"createdBy"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	FinalPrice  decimal.Decimal     `json:"finalPrice"`
}

var hundred = decimal.NewFromInt(100)

// wholeCents reports whether d fits a NUMERIC(12,2) column without rounding.
func wholeCents(d decimal.Decimal) bool { return d.Equal(d.Round(2)) }

// finalize derives FinalPrice = price - price*discount/100.
func (p *Product) finalize() {
	p.FinalPrice = p.Price
	if p.Discount.Valid {
		p.FinalPrice = p.Price.Sub(p.Price.Mul(p.Discount.Decimal).Div(hundred)).Round(2)
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
}

type ProductInput struct {
	Name        string              `json:"name" validate:"required,min=2,max=200"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Stock       int                 `json:"stock" validate:"min=0"`
	Discount    decimal.NullDecimal `json:"discount"`
	Offer       bool                `json:"offer"`
	ImageURL    string              `json:"imageUrl"`
	ImageURLs   []string            `json:"imageUrls"`
	Colors      []string            `json:"colors"`
	Sizes       []string            `json:"sizes"`
	Features    []string            `json:"features"`
	CategoryID  int64               `json:"categoryId" validate:"required"`
}

// ProductUpdate changes only the fields that are present.
type ProductUpdate struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	Discount    *decimal.Decimal `json:"discount"`
	Offer       *bool            `json:"offer"`
	ImageURL    *string          `json:"imageUrl"`
	ImageURLs   []string         `json:"imageUrls"`
	Colors      []string         `json:"colors"`
	Sizes       []string         `json:"sizes"`
	Features    []string         `json:"features"`
	CategoryID  *int64           `json:"categoryId"`
}

func (u ProductUpdate) apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Discount != nil {
		p.Discount = decimal.NewNullDecimal(*u.Discount)
	}
	if u.Offer != nil {
		p.Offer = *u.Offer
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.ImageURLs != nil {
		p.ImageURLs = u.ImageURLs
	}
	if u.Colors != nil {
		p.Colors = u.Colors
	}
	if u.Sizes != nil {
		p.Sizes = u.Sizes
	}
	if u.Features != nil {
		p.Features = u.Features
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
}

type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"lastPage"`
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInUse     = errors.New("still referenced")
)
