// Package handlers exposes read-only lookups over the consumer's store.
// Writes never enter here; entities are created only by consuming events.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/optica/paymentflow/libs/httpx"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

type Handler struct {
	companies *domain.CompanyService
	accounts  *domain.AccountService
	registers *domain.RegisterService
	logger    *slog.Logger
}

func New(companies *domain.CompanyService, accounts *domain.AccountService, registers *domain.RegisterService, logger *slog.Logger) *Handler {
	return &Handler{companies: companies, accounts: accounts, registers: registers, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/companies", h.ListCompanies)
	mux.HandleFunc("GET /api/v1/companies/{id}", h.GetCompany)
	mux.HandleFunc("GET /api/v1/accounts/{id}", h.GetAccount)
	mux.HandleFunc("GET /api/v1/registers/{id}", h.GetRegister)
}

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list companies failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	httpx.WriteJSON(w, http.StatusOK, companies)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	company, err := h.companies.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrCompanyNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		h.logger.Error("get company failed", "err", err, "company_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		h.logger.Error("get account failed", "err", err, "account_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	register, err := h.registers.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrRegisterNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "register not found")
		return
	}
	if err != nil {
		h.logger.Error("get register failed", "err", err, "register_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, register)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
