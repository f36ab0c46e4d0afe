package coa

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/platform/httpx"
)

// Handler exposes the chart of accounts over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the CoA handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the CoA endpoints under a company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/coa", h.list)
	r.Put("/companies/{companyID}/coa", h.upsert)
	r.Get("/companies/{companyID}/coa/tree", h.tree)
	r.Post("/coa/validate", h.validate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list coa", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var accounts []Account
	if err := httpx.DecodeJSON(r, &accounts); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	result, err := h.service.Upsert(r.Context(), chi.URLParam(r, "companyID"), accounts)
	if errors.Is(err, ErrInvalidAccounts) {
		httpx.JSON(w, http.StatusBadRequest, result)
		return
	}
	if err != nil {
		h.logger.Error("upsert coa", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("build coa tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var accounts []Account
	if err := httpx.DecodeJSON(r, &accounts); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	httpx.JSON(w, http.StatusOK, Validate(accounts))
}
