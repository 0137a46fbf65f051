package auth

import (
	"context"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type Capability string

const (
	CapManageOrders  Capability = "orders:manage"
	CapReadAllOrders Capability = "orders:read-all"
	CapManageCatalog Capability = "catalog:manage"
)

var roleCaps = map[Role]map[Capability]bool{
	RoleAdmin: {CapManageOrders: true, CapReadAllOrders: true, CapManageCatalog: true},
	RoleUser:  {},
}

// Principal is the authenticated caller resolved from the identity store.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}

func (p Principal) Can(c Capability) bool {
	return roleCaps[p.Role][c]
}

// Authorize is the single gate every privileged operation goes through.
func Authorize(p Principal, c Capability) error {
	if !p.Can(c) {
		return apperr.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
