package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
)

// Tx is the set of writes an order placement performs atomically.
type Tx interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	AddressOwner(ctx context.Context, id int64) (int64, error)
	CreateAddress(ctx context.Context, a *addresses.Address) error
	ReserveStock(ctx context.Context, productID int64, qty int) error
	InsertOrder(ctx context.Context, o *Order) error
}

type Store interface {
	// InTx commits only if fn returns nil; any error rolls every write back.
	InTx(ctx context.Context, fn func(Tx) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	SetPaymentsStatus(ctx context.Context, orderID int64, st PaymentStatus) error
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Order, error) {
	out, err := r.List(ctx, Filter{ID: id})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ID != 0 {
		add("o.id = $%d", f.ID)
	}
	if f.UserID != 0 {
		add("o.user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("o.status = $%d", f.Status)
	}
	if f.PaymentStatus != "" {
		add("EXISTS (SELECT 1 FROM payments p WHERE p.order_id = o.id AND p.status = $%d)", f.PaymentStatus)
	}

	q := `SELECT o.id, o.user_id, o.address_id, o.total, o.status, o.estimated_delivery, o.created_at FROM orders o`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY o.id DESC"

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Total, &o.Status, &o.EstimatedDelivery, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Items = []Item{}
		o.Payments = []Payment{}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, r.hydrate(ctx, out)
}

// hydrate loads items with their products, payments, addresses and buyers in one query each.
func (r *Repo) hydrate(ctx context.Context, orders []Order) error {
	ids := make([]int64, len(orders))
	addrIDs := make([]int64, 0, len(orders))
	userIDs := make([]int64, 0, len(orders))
	byID := make(map[int64]*Order, len(orders))
	for i := range orders {
		o := &orders[i]
		ids[i] = o.ID
		addrIDs = append(addrIDs, o.AddressID)
		userIDs = append(userIDs, o.UserID)
		byID[o.ID] = o
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.colors, oi.sizes,
		       p.name, p.price, p.image_url, p.stock
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1) ORDER BY oi.id`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var it Item
		pr := &ProductRef{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Colors, &it.Sizes,
			&pr.Name, &pr.Price, &pr.ImageURL, &pr.Stock); err != nil {
			rows.Close()
			return err
		}
		pr.ID = it.ProductID
		it.Product = pr
		o := byID[it.OrderID]
		o.Items = append(o.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.DB.Query(ctx, `
		SELECT id, order_id, amount, method, status, created_at
		FROM payments WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		o := byID[p.OrderID]
		o.Payments = append(o.Payments, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	addrs, err := addresses.ByIDs(ctx, r.DB, addrIDs)
	if err != nil {
		return err
	}

	buyers := map[int64]Buyer{}
	rows, err = r.DB.Query(ctx, `SELECT id, name, email, telephone FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return err
	}
	for rows.Next() {
		var b Buyer
		if err := rows.Scan(&b.ID, &b.Name, &b.Email, &b.Telephone); err != nil {
			rows.Close()
			return err
		}
		buyers[b.ID] = b
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range orders {
		o := &orders[i]
		if a, ok := addrs[o.AddressID]; ok {
			o.Address = &a
		}
		if b, ok := buyers[o.UserID]; ok {
			o.User = &b
		}
	}
	return nil
}

// UpdateStatus moves id from one status to another. It fails with
// ErrStatusChanged if the stored status is no longer from.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusChanged
}

func (r *Repo) SetPaymentsStatus(ctx context.Context, orderID int64, st PaymentStatus) error {
	ct, err := r.DB.Exec(ctx, `UPDATE payments SET status=$2 WHERE order_id=$1`, orderID, st)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
