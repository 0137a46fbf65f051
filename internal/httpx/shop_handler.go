package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/payments"
	"github.com/ariefcatur/go-shop-api/internal/reviews"
	"github.com/ariefcatur/go-shop-api/internal/uploads"
)

const maxUploadMemory = 32 << 20

type ReviewsHandler struct {
	Reviews *reviews.Service
	Log     *zap.Logger
}

func (h *ReviewsHandler) RegisterPublic(r chi.Router) {
	r.Get("/reviews/product/{id}", h.byProduct)
}

func (h *ReviewsHandler) Register(r chi.Router) {
	r.Post("/reviews", h.create)
	r.Put("/reviews/{id}", h.update)
	r.Delete("/reviews/{id}", h.delete)
}

func (h *ReviewsHandler) byProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	rs, err := h.Reviews.ByProduct(r.Context(), id, limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(rs))
}

func (h *ReviewsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req reviews.CreateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ReviewsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req reviews.UpdateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	rv, err := h.Reviews.Update(r.Context(), principal(r).UserID, id, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Reviews.Delete(r.Context(), principal(r).UserID, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PaymentsHandler struct {
	Payments *payments.Service
	Log      *zap.Logger
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments/create", h.create)
	r.Get("/payments/capture/{orderId}", h.capture)
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req payments.CreateInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Payments.Create(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentsHandler) capture(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	tx, err := h.Payments.Capture(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

type UploadsHandler struct {
	Store *uploads.Store
	Log   *zap.Logger
}

// RegisterPublic serves stored files under /uploads/.
func (h *UploadsHandler) RegisterPublic(r chi.Router) {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.Store.Dir)))
	r.Get("/uploads/*", fs.ServeHTTP)
}

func (h *UploadsHandler) Register(r chi.Router) {
	r.Post("/upload", h.uploadForm)
	r.Post("/upload/image", h.uploadImage)
}

func (h *UploadsHandler) parse(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return apperr.BadRequest("invalid multipart form")
	}
	return nil
}

func (h *UploadsHandler) uploadForm(w http.ResponseWriter, r *http.Request) {
	if err := h.parse(w, r); err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Store.SaveForm(r.MultipartForm)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *UploadsHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	if err := h.parse(w, r); err != nil {
		writeError(w, h.Log, err)
		return
	}
	files := r.MultipartForm.File[uploads.SingleField]
	if len(files) == 0 {
		writeError(w, h.Log, apperr.BadRequest("%s is required", uploads.SingleField))
		return
	}
	u, err := h.Store.Save(files[0])
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": u})
}
