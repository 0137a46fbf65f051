package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/catalog"
)

type CatalogHandler struct {
	Catalog *catalog.Service
	Log     *zap.Logger
}

func (h *CatalogHandler) RegisterPublic(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/paginate", h.pageCategories)
	r.Get("/categories/{id}", h.getCategory)

	r.Get("/products", h.listProducts)
	r.Get("/products/paginate", h.pageProducts)
	r.Get("/products/search", h.search)
	r.Get("/products/category/{id}", h.byCategory)
	r.Get("/products/{id}", h.getProduct)
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Post("/categories", h.createCategory)
	r.Put("/categories/{id}", h.updateCategory)
	r.Delete("/categories/{id}", h.deleteCategory)

	r.Get("/products/admin", h.adminProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

func pageQuery(r *http.Request) (page, limit int, err error) {
	if page, err = intQuery(r, "page", catalog.DefaultPage); err != nil {
		return 0, 0, err
	}
	if limit, err = intQuery(r, "limit", catalog.DefaultLimit); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(cs))
}

func (h *CatalogHandler) pageCategories(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Catalog.CategoryPage(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res.Data = emptyIfNil(res.Data)
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Catalog.Category(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.CategoryInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req catalog.CategoryInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), principal(r), id, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), principal(r), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.Products(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ps))
}

func (h *CatalogHandler) pageProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Catalog.ProductPage(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res.Data = emptyIfNil(res.Data)
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	page, limit, err := pageQuery(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res, err := h.Catalog.ByCategory(r.Context(), id, page, limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	res.Data = emptyIfNil(res.Data)
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.Product(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) adminProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.AdminProducts(r.Context(), principal(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(ps))
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), principal(r), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req catalog.ProductUpdate
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), principal(r), id, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Catalog.DeleteProduct(r.Context(), principal(r), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
