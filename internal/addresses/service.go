package addresses

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

type Store interface {
	Create(ctx context.Context, a *Address) error
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	Get(ctx context.Context, id, userID int64) (*Address, error)
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id, userID int64) error
}

type Service struct {
	Store Store
}

func mapErr(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Address not found")
	}
	return apperr.Internal(msg, err)
}

func (s *Service) Create(ctx context.Context, userID int64, in Input) (*Address, error) {
	a := in.ToAddress(userID)
	if err := s.Store.Create(ctx, a); err != nil {
		return nil, apperr.Internal("could not create address", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]Address, error) {
	out, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("could not list addresses", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id, userID int64) (*Address, error) {
	a, err := s.Store.Get(ctx, id, userID)
	if err != nil {
		return nil, mapErr(err, "could not load address")
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, id, userID int64, in UpdateInput) (*Address, error) {
	a, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	in.apply(a)
	if err := s.Store.Update(ctx, a); err != nil {
		return nil, mapErr(err, "could not update address")
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.Store.Delete(ctx, id, userID); err != nil {
		return mapErr(err, "could not delete address")
	}
	return nil
}
