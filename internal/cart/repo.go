package cart

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) ByUser(ctx context.Context, userID int64) (*Cart, error) {
	c := Cart{UserID: userID, Items: []Item{}}
	err := r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&c.ID)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.product_id, ci.quantity, p.name, p.price, p.image_url, p.stock
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id=$1 ORDER BY ci.id`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.Name, &it.Price, &it.ImageURL, &it.Stock); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

func (r *Repo) Ensure(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO carts(user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`, userID).Scan(&id)
	return id, err
}

func (r *Repo) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&ok)
	return ok, err
}

func (r *Repo) AddItem(ctx context.Context, cartID, productID int64, qty int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(cart_id, product_id, quantity) VALUES ($1,$2,$3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, productID, qty)
	return err
}

func (r *Repo) SetQuantity(ctx context.Context, userID, itemID int64, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items ci SET quantity=$3
		FROM carts c WHERE c.id = ci.cart_id AND c.user_id=$1 AND ci.id=$2`, userID, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE c.id = ci.cart_id AND c.user_id=$1 AND ci.id=$2`, userID, itemID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID int64) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE c.id = ci.cart_id AND c.user_id=$1`, userID)
	return err
}
