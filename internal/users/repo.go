package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, name, email, password_hash, role, telephone, address, profile, email_confirmed,
	COALESCE(confirmation_token, ''), COALESCE(reset_token_hash, ''), reset_token_expires_at, created_at, updated_at`

func (r *Repo) one(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Telephone, &u.Address, &u.Profile,
		&u.EmailConfirmed, &u.ConfirmationToken, &u.ResetTokenHash, &u.ResetTokenExpiresAt,
		&u.CreatedAt, &u.UpdatedAt)
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Create(ctx context.Context, u *User) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(name, email, password_hash, role, telephone, address, confirmation_token)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''))
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Telephone, u.Address, u.ConfirmationToken,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *Repo) ByID(ctx context.Context, id int64) (*User, error) {
	return r.one(ctx, "id=$1", id)
}

func (r *Repo) ByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, "email=$1", email)
}

func (r *Repo) ByConfirmationToken(ctx context.Context, token string) (*User, error) {
	return r.one(ctx, "confirmation_token=$1", token)
}

func (r *Repo) exec(ctx context.Context, sql string, args ...any) error {
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ConfirmEmail(ctx context.Context, id int64) error {
	return r.exec(ctx, `
		UPDATE users SET email_confirmed=TRUE, confirmation_token=NULL, updated_at=now()
		WHERE id=$1`, id)
}

func (r *Repo) SetResetToken(ctx context.Context, id int64, hash string, expires time.Time) error {
	return r.exec(ctx, `
		UPDATE users SET reset_token_hash=$2, reset_token_expires_at=$3, updated_at=now()
		WHERE id=$1`, id, hash, expires)
}

// UpdatePassword also clears any pending reset token.
func (r *Repo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `
		UPDATE users SET password_hash=$2, reset_token_hash=NULL, reset_token_expires_at=NULL, updated_at=now()
		WHERE id=$1`, id, hash)
}

func (r *Repo) UpdateProfile(ctx context.Context, u *User) error {
	return r.DB.QueryRow(ctx, `
		UPDATE users SET name=$2, telephone=$3, address=$4, profile=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		u.ID, u.Name, u.Telephone, u.Address, u.Profile,
	).Scan(&u.UpdatedAt)
}

// PrincipalByID backs the auth middleware with the user's current role.
func (r *Repo) PrincipalByID(ctx context.Context, id int64) (auth.Principal, error) {
	var p auth.Principal
	err := r.DB.QueryRow(ctx, `SELECT id, email, role FROM users WHERE id=$1`, id).Scan(&p.UserID, &p.Email, &p.Role)
	if postgres.IsNoRows(err) {
		return p, ErrNotFound
	}
	return p, err
}
