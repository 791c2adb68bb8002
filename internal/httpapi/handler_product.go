package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/catalog"
	"github.com/thep200/ecommerce-api/internal/respond"
	"github.com/thep200/ecommerce-api/internal/search"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseProductFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", list)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseProductFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.svc.Search.Search(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", result)
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", search.DefaultSuggestLimit)
	suggestions, err := h.svc.Search.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{"suggestions": suggestions})
}

func (h *Handler) productBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Catalog.ProductBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{"product": product})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{"categories": categories})
}

func (h *Handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseProductFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.Catalog.ProductsByCategory(r.Context(), mux.Vars(r)["categorySlug"], f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", list)
}

func (h *Handler) featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.Featured(r.Context(), queryInt(r, "limit", catalog.DefaultFeaturedLimit))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "", map[string]interface{}{"products": products})
}

func productID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid product id")
	}
	return uint(id), nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	product, err := h.svc.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Created(w, "Product created successfully", map[string]interface{}{"product": product})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in catalog.ProductInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	product, err := h.svc.Catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "Product updated successfully", map[string]interface{}{"product": product})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "Product deleted successfully", nil)
}

func (h *Handler) reindex(w http.ResponseWriter, r *http.Request) {
	if h.svc.Reindexer == nil || !h.svc.Search.Enabled() {
		respond.Fail(w, http.StatusServiceUnavailable, MsgSearchNotEnabled)
		return
	}
	n, err := h.svc.Reindexer.ReindexAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, "Reindex completed", map[string]interface{}{"indexed": n})
}

func (h *Handler) reindexStatus(w http.ResponseWriter, r *http.Request) {
	if h.svc.Reindexer == nil {
		respond.Fail(w, http.StatusServiceUnavailable, MsgSearchNotEnabled)
		return
	}
	respond.OK(w, "", map[string]interface{}{"reindex": h.svc.Reindexer.ReindexStatus()})
}
