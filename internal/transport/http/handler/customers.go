package handler

import (
	"net/http"

	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/domain"
)

type CustomerHandler struct {
	svc shop.Service
}

func NewCustomerHandler(svc shop.Service) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "customer not logged in")
		return
	}
	cust, err := h.svc.CurrentCustomer(r.Context(), ident.CustomerID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cust)
}
