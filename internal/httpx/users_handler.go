package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/users"
)

type UsersHandler struct {
	Users *users.Service
	Log   *zap.Logger
}

// RegisterPublic mounts the routes reachable without a token.
func (h *UsersHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Put("/auth/confirm-email", h.confirmEmail)
	r.Post("/auth/forgot-password", h.forgotPassword)
	r.Post("/auth/reset-password", h.resetPassword)
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/auth/user", h.profile)
	r.Put("/auth/update", h.update)
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.Users.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req users.LoginInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Users.Login(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UsersHandler) confirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, h.Log, apperr.BadRequest("token is required"))
		return
	}
	if err := h.Users.ConfirmEmail(r.Context(), token); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email confirmed"})
}

func (h *UsersHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req users.ForgotInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

func (h *UsersHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("token") == "" || q.Get("email") == "" {
		writeError(w, h.Log, apperr.BadRequest("token and email are required"))
		return
	}
	var req users.ResetInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Users.ResetPassword(r.Context(), q.Get("email"), q.Get("token"), req.Password); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	var req users.UpdateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.Users.UpdateProfile(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
