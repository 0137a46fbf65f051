package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

type memStore struct {
	rows []Review
	next int64
}

func (m *memStore) ProductExists(_ context.Context, productID int64) (bool, error) {
	return productID == 1, nil
}

func (m *memStore) Create(_ context.Context, r *Review) error {
	m.next++
	r.ID = m.next
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Review, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Update(_ context.Context, r *Review) error {
	for i := range m.rows {
		if m.rows[i].ID == r.ID {
			m.rows[i] = *r
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) ByProduct(_ context.Context, productID int64, limit int) ([]Review, error) {
	out := []Review{}
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].ProductID == productID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func TestCreateValidates(t *testing.T) {
	svc := &Service{Store: &memStore{}}
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{ProductID: 1, Rating: 6})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.Create(ctx, 1, CreateInput{ProductID: 2, Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	r, err := svc.Create(ctx, 1, CreateInput{ProductID: 1, Rating: 4, Comment: "bon"})
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
}

func TestOnlyAuthorMayChange(t *testing.T) {
	svc := &Service{Store: &memStore{}}
	ctx := context.Background()
	r, err := svc.Create(ctx, 1, CreateInput{ProductID: 1, Rating: 3})
	require.NoError(t, err)

	comment := "pa mal"
	_, err = svc.Update(ctx, 2, r.ID, UpdateInput{Comment: &comment})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.True(t, apperr.Is(svc.Delete(ctx, 2, r.ID), apperr.KindForbidden))

	got, err := svc.Update(ctx, 1, r.ID, UpdateInput{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)
	assert.Equal(t, "pa mal", got.Comment)

	require.NoError(t, svc.Delete(ctx, 1, r.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, 1, r.ID), apperr.KindNotFound))
}

func TestByProductDefaultsLimit(t *testing.T) {
	svc := &Service{Store: &memStore{}}
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := svc.Create(ctx, 1, CreateInput{ProductID: 1, Rating: 5})
		require.NoError(t, err)
	}

	out, err := svc.ByProduct(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, out, DefaultLimit)
	assert.Equal(t, int64(6), out[0].ID)
}
