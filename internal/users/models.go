package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-shop-api/internal/auth"
)

type User struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                auth.Role  `json:"role"`
	Telephone           string     `json:"telephone"`
	Address             string     `json:"address"`
	Profile             string     `json:"profile"`
	EmailConfirmed      bool       `json:"isConfirm"`
	ConfirmationToken   string     `json:"-"`
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type RegisterInput struct {
	Name      string `json:"name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=100"`
	Telephone string `json:"telephone"`
	Address   string `json:"address"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetInput struct {
	Password string `json:"password" validate:"required,min=6,max=100"`
}

type UpdateInput struct {
	Name      string `json:"name" validate:"omitempty,min=2,max=50"`
	Telephone string `json:"telephone"`
	Address   string `json:"address"`
	Profile   string `json:"profile" validate:"omitempty,url"`
}

type LoginResult struct {
	Token     string `json:"token"`
	IsConfirm bool   `json:"isConfirm"`
	IsAdmin   bool   `json:"isAdmin"`
}

var (
	ErrNotFound   = fmt.Errorf("user not found: %w", auth.ErrUnknownUser)
	ErrEmailTaken = errors.New("email already registered")
)
