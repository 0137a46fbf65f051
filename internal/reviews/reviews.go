package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

const DefaultLimit = 4

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	ProductID int64  `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type UpdateInput struct {
	Rating  int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

var ErrNotFound = errors.New("not found")

type Store interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id int64) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id int64) error
	ByProduct(ctx context.Context, productID int64, limit int) ([]Review, error)
}

type Service struct {
	Store Store
}

func validRating(n int) bool { return n >= 1 && n <= 5 }

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*Review, error) {
	if !validRating(in.Rating) {
		return nil, apperr.BadRequest("rating must be between 1 and 5")
	}
	ok, err := s.Store.ProductExists(ctx, in.ProductID)
	if err != nil {
		return nil, apperr.Internal("create review", err)
	}
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	r := &Review{ProductID: in.ProductID, UserID: userID, Rating: in.Rating, Comment: in.Comment}
	if err := s.Store.Create(ctx, r); err != nil {
		return nil, apperr.Internal("create review", err)
	}
	return r, nil
}

func (s *Service) authored(ctx context.Context, userID, id int64) (*Review, error) {
	r, err := s.Store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Review not found")
	}
	if err != nil {
		return nil, apperr.Internal("load review", err)
	}
	if r.UserID != userID {
		return nil, apperr.Forbidden("you can only change your own reviews")
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*Review, error) {
	r, err := s.authored(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Rating != 0 {
		if !validRating(in.Rating) {
			return nil, apperr.BadRequest("rating must be between 1 and 5")
		}
		r.Rating = in.Rating
	}
	if in.Comment != nil {
		r.Comment = *in.Comment
	}
	if err := s.Store.Update(ctx, r); err != nil {
		return nil, apperr.Internal("update review", err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.authored(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Internal("delete review", err)
	}
	return nil
}

// ByProduct returns the newest reviews of a product, DefaultLimit when limit < 1.
func (s *Service) ByProduct(ctx context.Context, productID int64, limit int) ([]Review, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	out, err := s.Store.ByProduct(ctx, productID, limit)
	if err != nil {
		return nil, apperr.Internal("list reviews", err)
	}
	return out, nil
}
