package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/domain"
)

type ProductHandler struct {
	svc shop.Service
}

func NewProductHandler(svc shop.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Variants(w http.ResponseWriter, r *http.Request) {
	variants, err := h.svc.ListVariants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Variants []domain.Variant `json:"variants"`
	}{variants})
}
