package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
)

type Store interface {
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context, limit, offset int) ([]Category, int, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, q ProductQuery) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product, stock *int) error
	DeleteProduct(ctx context.Context, id int64) error
}

type Service struct {
	Store Store
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

func pageBounds(page, limit int) (offset int, err error) {
	if page < 1 || limit < 1 {
		return 0, apperr.BadRequest("page and limit must be positive")
	}
	if limit > MaxLimit {
		return 0, apperr.BadRequest("limit must be at most %d", MaxLimit)
	}
	if page > MaxPage {
		return 0, apperr.BadRequest("page must be at most %d", MaxPage)
	}
	return (page - 1) * limit, nil
}

func newPage[T any](data []T, total, page, limit int) *Page[T] {
	return &Page[T]{Data: data, Total: total, Page: page, LastPage: (total + limit - 1) / limit}
}

func internal(op string, err error) error {
	return apperr.Internal(op, err)
}

func (s *Service) CreateCategory(ctx context.Context, p auth.Principal, in CategoryInput) (*Category, error) {
	if err := auth.Authorize(p, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	c := &Category{Name: strings.TrimSpace(in.Name), ImageURL: in.ImageURL}
	if err := s.Store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("Category %q already exists", c.Name)
		}
		return nil, internal("create category", err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, p auth.Principal, id int64, in CategoryInput) (*Category, error) {
	if err := auth.Authorize(p, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	c := &Category{ID: id, Name: strings.TrimSpace(in.Name), ImageURL: in.ImageURL}
	switch err := s.Store.UpdateCategory(ctx, c); {
	case errors.Is(err, ErrNotFound):
		return nil, apperr.NotFound("Category not found")
	case errors.Is(err, ErrDuplicate):
		return nil, apperr.Conflict("Category %q already exists", c.Name)
	case err != nil:
		return nil, internal("update category", err)
	}
	return c, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	out, _, err := s.Store.ListCategories(ctx, 0, 0)
	if err != nil {
		return nil, internal("list categories", err)
	}
	return out, nil
}

func (s *Service) CategoryPage(ctx context.Context, page, limit int) (*Page[Category], error) {
	offset, err := pageBounds(page, limit)
	if err != nil {
		return nil, err
	}
	out, total, err := s.Store.ListCategories(ctx, limit, offset)
	if err != nil {
		return nil, internal("list categories", err)
	}
	return newPage(out, total, page, limit), nil
}

// Category returns the category with its products.
func (s *Service) Category(ctx context.Context, id int64) (*Category, error) {
	c, err := s.category(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Products, _, err = s.Store.ListProducts(ctx, ProductQuery{CategoryID: id})
	if err != nil {
		return nil, internal("list category products", err)
	}
	return c, nil
}

func (s *Service) category(ctx context.Context, id int64) (*Category, error) {
	c, err := s.Store.GetCategory(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Category not found")
	}
	if err != nil {
		return nil, internal("load category", err)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, p auth.Principal, id int64) error {
	if err := auth.Authorize(p, auth.CapManageCatalog); err != nil {
		return err
	}
	switch err := s.Store.DeleteCategory(ctx, id); {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("Category not found")
	case errors.Is(err, ErrInUse):
		return apperr.Conflict("Category still has products")
	case err != nil:
		return internal("delete category", err)
	}
	return nil
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	out, _, err := s.Store.ListProducts(ctx, ProductQuery{})
	if err != nil {
		return nil, internal("list products", err)
	}
	return out, nil
}

func (s *Service) ProductPage(ctx context.Context, page, limit int) (*Page[Product], error) {
	return s.productPage(ctx, ProductQuery{}, page, limit)
}

func (s *Service) ByCategory(ctx context.Context, categoryID int64, page, limit int) (*Page[Product], error) {
	if _, err := s.category(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.productPage(ctx, ProductQuery{CategoryID: categoryID}, page, limit)
}

func (s *Service) productPage(ctx context.Context, q ProductQuery, page, limit int) (*Page[Product], error) {
	offset, err := pageBounds(page, limit)
	if err != nil {
		return nil, err
	}
	q.Limit, q.Offset = limit, offset
	out, total, err := s.Store.ListProducts(ctx, q)
	if err != nil {
		return nil, internal("list products", err)
	}
	return newPage(out, total, page, limit), nil
}

// Search matches product names case-insensitively. No match is NotFound.
func (s *Service) Search(ctx context.Context, name string) ([]Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("name is required")
	}
	out, _, err := s.Store.ListProducts(ctx, ProductQuery{NameLike: name})
	if err != nil {
		return nil, internal("search products", err)
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("No products found matching %q", name)
	}
	return out, nil
}

func (s *Service) Product(ctx context.Context, id int64) (*Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, internal("load product", err)
	}
	return p, nil
}

// AdminProducts lists the products the caller created.
func (s *Service) AdminProducts(ctx context.Context, p auth.Principal) ([]Product, error) {
	if err := auth.Authorize(p, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	out, _, err := s.Store.ListProducts(ctx, ProductQuery{CreatedBy: p.UserID})
	if err != nil {
		return nil, internal("list products", err)
	}
	return out, nil
}

func checkProduct(p *Product) error {
	if p.Price.IsNegative() {
		return apperr.BadRequest("price must not be negative")
	}
	if !wholeCents(p.Price) {
		return apperr.BadRequest("price must not have more than 2 decimal places")
	}
	if p.Stock < 0 {
		return apperr.BadRequest("stock must not be negative")
	}
	if p.Discount.Valid && (p.Discount.Decimal.IsNegative() || p.Discount.Decimal.GreaterThan(hundred)) {
		return apperr.BadRequest("discount must be between 0 and 100")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p auth.Principal, in ProductInput) (*Product, error) {
	if err := auth.Authorize(p, auth.CapManageCatalog); err != nil {
		return nil, err
	}
	prod := &Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Discount:    in.Discount,
		Offer:       in.Offer,
		ImageURL:    in.ImageURL,
		ImageURLs:   in.ImageURLs,
		Colors:      in.Colors,
		Sizes:       in.Sizes,
		Features:    in.Features,
		CategoryID:  in.CategoryID,
		CreatedBy:   p.UserID,
	}
	if err := checkProduct(prod); err != nil {
		return nil, err
	}
	if _, err := s.category(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.Store.CreateProduct(ctx, prod); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, internal("create product", err)
	}
	return prod, nil
}

// owned loads a product the caller created.
func (s *Service) owned(ctx context.Context, p auth.Principal, id int64) (*Product, error) {
	prod, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if prod.CreatedBy != p.UserID {
		return nil, apperr.Forbidden("you can only modify products you created")
	}
	return prod, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p auth.Principal, id int64, upd ProductUpdate) (*Product, error) {
	prod, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	prevCategory := prod.CategoryID
	upd.apply(prod)
	if err := checkProduct(prod); err != nil {
		return nil, err
	}
	if prod.CategoryID != prevCategory {
		if _, err := s.category(ctx, prod.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := s.Store.UpdateProduct(ctx, prod, upd.Stock); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, internal("update product", err)
	}
	return prod, nil
}

func (s *Service) DeleteProduct(ctx context.Context, p auth.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	switch err := s.Store.DeleteProduct(ctx, id); {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("Product not found")
	case errors.Is(err, ErrInUse):
		return apperr.Conflict("Product is referenced by existing orders")
	case err != nil:
		return internal("delete product", err)
	}
	return nil
}
