package users

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
)

const resetTokenTTL = time.Hour

type Store interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id int64) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByConfirmationToken(ctx context.Context, token string) (*User, error)
	ConfirmEmail(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, hash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, u *User) error
}

type Mailer interface {
	SendConfirmation(to, link string) error
	SendPasswordReset(to, link string) error
}

type Service struct {
	Store     Store
	Mail      Mailer
	Tokens    *auth.Tokens
	PublicURL string
	Log       *zap.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *Service) link(path string, q url.Values) string {
	return strings.TrimRight(s.PublicURL, "/") + path + "?" + q.Encode()
}

// Register creates an unconfirmed USER account and mails the confirmation link.
// A mail failure is logged; the account still exists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.Store.ByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Internal("register", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	token, err := auth.RandomToken()
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	u := &User{
		Name:              strings.TrimSpace(in.Name),
		Email:             email,
		PasswordHash:      hash,
		Role:              auth.RoleUser,
		Telephone:         in.Telephone,
		Address:           in.Address,
		ConfirmationToken: token,
	}
	if err := s.Store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, apperr.Internal("register", err)
	}

	if err := s.Mail.SendConfirmation(u.Email, s.link("/confirm-email", url.Values{"token": {token}})); err != nil {
		s.Log.Warn("confirmation mail failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.BadRequest("token is required")
	}
	u, err := s.Store.ByConfirmationToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("Invalid confirmation token")
	}
	if err != nil {
		return apperr.Internal("confirm email", err)
	}
	if err := s.Store.ConfirmEmail(ctx, u.ID); err != nil {
		return apperr.Internal("confirm email", err)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.Store.ByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("login", err)
	}
	if !u.EmailConfirmed {
		return nil, apperr.Unauthorized("Please confirm your email before logging in")
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	tok, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperr.Internal("login", err)
	}
	return &LoginResult{Token: tok, IsConfirm: u.EmailConfirmed, IsAdmin: u.Role == auth.RoleAdmin}, nil
}

// ForgotPassword stores a hashed one-hour reset token and mails the raw one.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.Store.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Internal("forgot password", err)
	}
	token, err := auth.RandomToken()
	if err != nil {
		return apperr.Internal("forgot password", err)
	}
	hash, err := auth.HashPassword(token)
	if err != nil {
		return apperr.Internal("forgot password", err)
	}
	if err := s.Store.SetResetToken(ctx, u.ID, hash, s.now().Add(resetTokenTTL)); err != nil {
		return apperr.Internal("forgot password", err)
	}
	link := s.link("/reset-password", url.Values{"token": {token}, "email": {email}})
	if err := s.Mail.SendPasswordReset(email, link); err != nil {
		return apperr.Internal("Could not send the password reset email", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, token, password string) error {
	u, err := s.Store.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Internal("reset password", err)
	}
	if u.ResetTokenHash == "" || u.ResetTokenExpiresAt == nil || s.now().After(*u.ResetTokenExpiresAt) {
		return apperr.BadRequest("Invalid or expired password reset token")
	}
	if !auth.CheckPassword(u.ResetTokenHash, token) {
		return apperr.BadRequest("Invalid or expired password reset token")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Internal("reset password", err)
	}
	if err := s.Store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal("reset password", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, id int64) (*User, error) {
	u, err := s.Store.ByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("load profile", err)
	}
	return u, nil
}

// UpdateProfile keeps the stored value for every empty field.
func (s *Service) UpdateProfile(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Telephone != "" {
		u.Telephone = in.Telephone
	}
	if in.Address != "" {
		u.Address = in.Address
	}
	if in.Profile != "" {
		u.Profile = in.Profile
	}
	if err := s.Store.UpdateProfile(ctx, u); err != nil {
		return nil, apperr.Internal("update profile", err)
	}
	return u, nil
}
