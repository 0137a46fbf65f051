package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/addresses"
	"github.com/ariefcatur/go-shop-api/internal/cart"
)

// AccountHandler serves the per-user address book and cart.
type AccountHandler struct {
	Addresses *addresses.Service
	Cart      *cart.Service
	Log       *zap.Logger
}

func (h *AccountHandler) Register(r chi.Router) {
	r.Get("/addresses", h.listAddresses)
	r.Post("/addresses", h.createAddress)
	r.Get("/addresses/{id}", h.getAddress)
	r.Put("/addresses/{id}", h.updateAddress)
	r.Delete("/addresses/{id}", h.deleteAddress)

	r.Get("/cart", h.getCart)
	r.Post("/cart", h.addToCart)
	r.Put("/cart/{itemId}", h.updateCartItem)
	r.Delete("/cart/{itemId}", h.removeCartItem)
	r.Delete("/cart", h.clearCart)
}

func (h *AccountHandler) listAddresses(w http.ResponseWriter, r *http.Request) {
	as, err := h.Addresses.List(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(as))
}

func (h *AccountHandler) createAddress(w http.ResponseWriter, r *http.Request) {
	var req addresses.Input
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	a, err := h.Addresses.Create(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AccountHandler) getAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	a, err := h.Addresses.Get(r.Context(), id, principal(r).UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AccountHandler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req addresses.UpdateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	a, err := h.Addresses.Update(r.Context(), id, principal(r).UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AccountHandler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Addresses.Delete(r.Context(), id, principal(r).UserID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Cart.Get(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cart.AddInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Cart.Add(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountHandler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req cart.UpdateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Cart.Update(r.Context(), principal(r).UserID, itemID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Cart.Remove(r.Context(), principal(r).UserID, itemID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AccountHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Clear(r.Context(), principal(r).UserID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
