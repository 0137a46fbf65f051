package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

const categoryColumns = `id, name, image_url, created_at, updated_at`

func scanCategory(row pgx.Row, c *Category) error {
	return row.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt)
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories(name, image_url) VALUES ($1,$2)
		RETURNING id, created_at, updated_at`, c.Name, c.ImageURL,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repo) UpdateCategory(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2, image_url=$3, updated_at=now() WHERE id=$1
		RETURNING created_at, updated_at`, c.ID, c.Name, c.ImageURL,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	switch {
	case postgres.IsNoRows(err):
		return ErrNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

func (r *Repo) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := scanCategory(r.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id), &c)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListCategories(ctx context.Context, limit, offset int) ([]Category, int, error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if postgres.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const productColumns = `id, name, description, price, stock, discount, offer, image_url, image_urls,
	colors, sizes, features, category_id, created_by, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Discount, &p.Offer, &p.ImageURL,
		&p.ImageURLs, &p.Colors, &p.Sizes, &p.Features, &p.CategoryID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		p.finalize()
	}
	return err
}

// ProductQuery filters product listings; zero fields are ignored. Limit 0 means no paging.
type ProductQuery struct {
	CategoryID int64
	CreatedBy  int64
	NameLike   string
	Limit      int
	Offset     int
}

func (r *Repo) ListProducts(ctx context.Context, q ProductQuery) ([]Product, int, error) {
	where := ` WHERE ($1::bigint = 0 OR category_id = $1) AND ($2::bigint = 0 OR created_by = $2)
		AND ($3::text = '' OR name ILIKE '%' || $3 || '%')`
	args := []any{q.CategoryID, q.CreatedBy, q.NameLike}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY id DESC`
	if q.Limit > 0 {
		sql += ` LIMIT $4 OFFSET $5`
		args = append(args, q.Limit, q.Offset)
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id), &p)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	p.finalize()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(name, description, price, stock, discount, offer, image_url, image_urls,
		                     colors, sizes, features, category_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.Stock, p.Discount, p.Offer, p.ImageURL, p.ImageURLs,
		p.Colors, p.Sizes, p.Features, p.CategoryID, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// UpdateProduct writes every field of p except stock, which is only set when stock is non-nil.
// Orders decrement stock concurrently, so a stale read must never be written back.
func (r *Repo) UpdateProduct(ctx context.Context, p *Product, stock *int) error {
	p.finalize()
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, stock=COALESCE($5::int, stock), discount=$6, offer=$7,
		       image_url=$8, image_urls=$9, colors=$10, sizes=$11, features=$12, category_id=$13, updated_at=now()
		WHERE id=$1
		RETURNING stock, updated_at`,
		p.ID, p.Name, p.Description, p.Price, stock, p.Discount, p.Offer, p.ImageURL, p.ImageURLs,
		p.Colors, p.Sizes, p.Features, p.CategoryID,
	).Scan(&p.Stock, &p.UpdatedAt)
	switch {
	case postgres.IsNoRows(err), postgres.IsForeignKeyViolation(err):
		return ErrNotFound
	}
	return err
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if postgres.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
