package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quick-orders/internal/application/shop"
	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/pkg/validate"
)

type createOrderRequest struct {
	Items []domain.OrderItem `json:"items" validate:"required,min=1,dive"`
}

// OrderHandler serves the signed-in customer's orders.
type OrderHandler struct {
	svc shop.Service
}

func NewOrderHandler(svc shop.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "customer not logged in")
		return
	}
	orders, err := h.svc.ListOrders(r.Context(), ident.CustomerID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "customer not logged in")
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.svc.CreateOrder(r.Context(), ident.CustomerID, req.Items)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ident, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "customer not logged in")
		return
	}
	order, err := h.svc.Reorder(r.Context(), ident.CustomerID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
