package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/orders"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderService interface {
	Place(ctx context.Context, p auth.Principal, in orders.PlaceInput, idemKey string) (*orders.Order, bool, error)
	Get(ctx context.Context, p auth.Principal, id int64) (*orders.Order, error)
	ListAll(ctx context.Context, p auth.Principal) ([]orders.Order, error)
	ListByUser(ctx context.Context, p auth.Principal, userID int64) ([]orders.Order, error)
	ListByStatus(ctx context.Context, p auth.Principal, status string) ([]orders.Order, error)
	ListByPaymentStatus(ctx context.Context, p auth.Principal, status string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, p auth.Principal, id int64, status string) (*orders.Order, error)
}

type OrdersHandler struct {
	Orders OrderService
	Log    *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/byUser", h.listMine)
	r.Get("/orders/status/{query}", h.listByStatus)
	r.Get("/orders/payment/{query}", h.listByPayment)
	r.Put("/orders/status/{id}/{status}", h.updateStatus)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, replayed, err := h.Orders.Place(ctx, principal(r), req, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if replayed {
		writeJSON(w, http.StatusOK, o)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, principal(r), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListAll(r.Context(), principal(r))
	h.writeList(w, list, err)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	list, err := h.Orders.ListByUser(r.Context(), p, p.UserID)
	h.writeList(w, list, err)
}

func (h *OrdersHandler) listByStatus(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListByStatus(r.Context(), principal(r), chi.URLParam(r, "query"))
	h.writeList(w, list, err)
}

func (h *OrdersHandler) listByPayment(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.ListByPaymentStatus(r.Context(), principal(r), chi.URLParam(r, "query"))
	h.writeList(w, list, err)
}

func (h *OrdersHandler) writeList(w http.ResponseWriter, list []orders.Order, err error) {
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), principal(r), id, chi.URLParam(r, "status"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
