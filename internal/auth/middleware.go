package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrUnknownUser is returned by a Lookup when the token's user no longer exists.
var ErrUnknownUser = errors.New("unknown user")

// Lookup resolves the current state of a user (role may have changed since the token was issued).
type Lookup interface {
	PrincipalByID(ctx context.Context, id int64) (Principal, error)
}

func Middleware(tokens *Tokens, lookup Lookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || tokenStr == "" {
				unauthorized(w, "missing token")
				return
			}
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			id, err := claims.UserID()
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			p, err := lookup.PrincipalByID(r.Context(), id)
			if errors.Is(err, ErrUnknownUser) {
				unauthorized(w, "invalid token")
				return
			}
			if err != nil {
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeMessage(w, http.StatusUnauthorized, msg)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
