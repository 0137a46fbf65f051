package reviews

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&ok)
	return ok, err
}

func (r *Repo) Create(ctx context.Context, rv *Review) error {
	return r.DB.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO reviews(product_id, user_id, rating, comment) VALUES ($1,$2,$3,$4)
			RETURNING id, created_at, updated_at, user_id
		)
		SELECT ins.id, ins.created_at, ins.updated_at, u.name FROM ins JOIN users u ON u.id = ins.user_id`,
		rv.ProductID, rv.UserID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt, &rv.Author)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Review, error) {
	var rv Review
	err := r.DB.QueryRow(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, u.name, rv.rating, rv.comment, rv.created_at, rv.updated_at
		FROM reviews rv JOIN users u ON u.id = rv.user_id WHERE rv.id=$1`, id,
	).Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Author, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repo) Update(ctx context.Context, rv *Review) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE reviews SET rating=$2, comment=$3, updated_at=now() WHERE id=$1
		RETURNING updated_at`, rv.ID, rv.Rating, rv.Comment,
	).Scan(&rv.UpdatedAt)
	if postgres.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ByProduct(ctx context.Context, productID int64, limit int) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, u.name, rv.rating, rv.comment, rv.created_at, rv.updated_at
		FROM reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id=$1 ORDER BY rv.created_at DESC, rv.id DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Author, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
