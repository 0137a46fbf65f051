package orders

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

// pgTx runs the placement steps inside one database transaction.
type pgTx struct{ tx pgx.Tx }

func (t *pgTx) UserExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (t *pgTx) AddressOwner(ctx context.Context, id int64) (int64, error) {
	return addresses.Owner(ctx, t.tx, id)
}

func (t *pgTx) CreateAddress(ctx context.Context, a *addresses.Address) error {
	return addresses.Insert(ctx, t.tx, a)
}

// ReserveStock decrements stock only if enough remains. The check and the
// write are one statement, so two concurrent orders can never both pass it.
func (t *pgTx) ReserveStock(ctx context.Context, productID int64, qty int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var (
		name  string
		stock int
	)
	err = t.tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1`, productID).Scan(&name, &stock)
	if postgres.IsNoRows(err) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Name: name, Requested: qty, Available: stock}
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, address_id, total, status, estimated_delivery, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		RETURNING id`,
		o.UserID, o.AddressID, o.Total, o.Status, o.EstimatedDelivery, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := t.tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price, colors, sizes)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			o.ID, it.ProductID, it.Quantity, it.Price, it.Colors, it.Sizes,
		).Scan(&it.ID); err != nil {
			return err
		}
	}

	for i := range o.Payments {
		p := &o.Payments[i]
		p.OrderID = o.ID
		if err := t.tx.QueryRow(ctx, `
			INSERT INTO payments(order_id, amount, method, status)
			VALUES ($1,$2,$3,$4)
			RETURNING id, created_at`,
			o.ID, p.Amount, p.Method, p.Status,
		).Scan(&p.ID, &p.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func joinOptions(v []string) string { return strings.Join(v, ",") }
