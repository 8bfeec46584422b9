package handler

import (
	"net/http"
	"time"

	"github.com/quick-orders/internal/application/account"
	"github.com/quick-orders/internal/application/passcode"
	"github.com/quick-orders/internal/domain"
	"github.com/quick-orders/internal/pkg/validate"
)

type issueCodeRequest struct {
	Email     string         `json:"email" validate:"required,email"`
	Purpose   domain.Purpose `json:"purpose" validate:"omitempty,oneof=login registration"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
}

type verifyCodeRequest struct {
	Email     string         `json:"email" validate:"required"`
	Code      string         `json:"code" validate:"required"`
	Purpose   domain.Purpose `json:"purpose" validate:"omitempty,oneof=login registration"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
}

// VerificationHandler serves passcode issuance and verification.
type VerificationHandler struct {
	passcodes passcode.Service
	accounts  account.Service
	cookies   *SessionCookies
}

func NewVerificationHandler(passcodes passcode.Service, accounts account.Service, cookies *SessionCookies) *VerificationHandler {
	return &VerificationHandler{passcodes: passcodes, accounts: accounts, cookies: cookies}
}

func (h *VerificationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = domain.PurposeLogin
	}
	var pending *domain.PendingIdentity
	if req.FirstName != "" || req.LastName != "" {
		pending = &domain.PendingIdentity{FirstName: req.FirstName, LastName: req.LastName}
	}
	if err := h.passcodes.IssueCode(r.Context(), req.Email, purpose, pending); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		res *account.Result
		err error
	)
	if req.Purpose == domain.PurposeRegistration {
		res, err = h.accounts.CompleteRegistration(r.Context(), req.Email, req.Code, req.FirstName, req.LastName)
	} else {
		res, err = h.accounts.CompleteLogin(r.Context(), req.Email, req.Code)
	}
	if err != nil {
		httpError(w, err)
		return
	}
	if res.SessionToken != "" && h.cookies != nil {
		h.cookies.Set(w, res.SessionToken, time.Now())
	}
	writeJSON(w, http.StatusOK, IdentityEnvelope{Identity: res.Identity, SessionToken: res.SessionToken})
}
