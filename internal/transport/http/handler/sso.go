package handler

import (
	"net/http"
	"strings"

	"github.com/quick-orders/internal/application/sso"
	"github.com/quick-orders/internal/pkg/validate"
)

type ssoTokenRequest struct {
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ReturnTo  string `json:"returnTo"`
}

// SSOHandler hands out single sign-on tokens for the shop's hosted login.
type SSOHandler struct {
	builder *sso.Builder
}

func NewSSOHandler(builder *sso.Builder) *SSOHandler {
	return &SSOHandler{builder: builder}
}

func (h *SSOHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ssoTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, url, err := h.builder.LoginURL(sso.Claims{
		Email:     strings.TrimSpace(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ReturnTo:  req.ReturnTo,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SSOEnvelope{Token: token, URL: url})
}
