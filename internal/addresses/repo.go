package addresses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

var ErrNotFound = errors.New("address not found")

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, user_id, first_name, last_name, email, telephone, street, city, state, zip_code,
	country, address_details, is_default, created_at`

func scan(row pgx.Row, a *Address) error {
	return row.Scan(&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Email, &a.Telephone, &a.Street,
		&a.City, &a.State, &a.ZipCode, &a.Country, &a.AddressDetails, &a.Default, &a.CreatedAt)
}

// Insert creates a for a.UserID through q, which may be a transaction.
// The first address a user owns becomes the default one.
func Insert(ctx context.Context, q postgres.Querier, a *Address) error {
	return q.QueryRow(ctx, `
		INSERT INTO addresses(user_id, first_name, last_name, email, telephone, street, city, state,
		                      zip_code, country, address_details, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,
		        NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $1))
		RETURNING id, is_default, created_at`,
		a.UserID, a.FirstName, a.LastName, a.Email, a.Telephone, a.Street, a.City, a.State,
		a.ZipCode, a.Country, a.AddressDetails,
	).Scan(&a.ID, &a.Default, &a.CreatedAt)
}

// Owner returns the user owning address id.
func Owner(ctx context.Context, q postgres.Querier, id int64) (int64, error) {
	var userID int64
	err := q.QueryRow(ctx, `SELECT user_id FROM addresses WHERE id=$1`, id).Scan(&userID)
	if postgres.IsNoRows(err) {
		return 0, ErrNotFound
	}
	return userID, err
}

func (r *Repo) Create(ctx context.Context, a *Address) error {
	return Insert(ctx, r.DB, a)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM addresses WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Address{}
	for rows.Next() {
		var a Address
		if err := scan(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id, userID int64) (*Address, error) {
	var a Address
	err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM addresses WHERE id=$1 AND user_id=$2`, id, userID), &a)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) Update(ctx context.Context, a *Address) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE addresses SET first_name=$3, last_name=$4, email=$5, telephone=$6, street=$7, city=$8,
		       state=$9, zip_code=$10, country=$11, address_details=$12
		WHERE id=$1 AND user_id=$2`,
		a.ID, a.UserID, a.FirstName, a.LastName, a.Email, a.Telephone, a.Street, a.City, a.State,
		a.ZipCode, a.Country, a.AddressDetails)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id, userID int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ByIDs loads the given addresses keyed by id. Missing ids are simply absent.
func ByIDs(ctx context.Context, q postgres.Querier, ids []int64) (map[int64]Address, error) {
	out := make(map[int64]Address, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `SELECT `+columns+` FROM addresses WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Address
		if err := scan(rows, &a); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}
