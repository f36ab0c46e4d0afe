package reports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/platform/httpx"
	"github.com/finboard-hq/finboard/internal/tb"
)

// Handler serves single-company statement derivations.
type Handler struct {
	coa    *coa.Service
	tb     *tb.Service
	logger *slog.Logger
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, coaSvc *coa.Service, tbSvc *tb.Service) *Handler {
	return &Handler{coa: coaSvc, tb: tbSvc, logger: logger}
}

// MountRoutes registers the statement endpoints under a company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/tb/{tbID}/pl", h.profitAndLoss)
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	balance, err := h.tb.Get(r.Context(), companyID, chi.URLParam(r, "tbID"))
	if errors.Is(err, tb.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("load trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	accounts, err := h.coa.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("load coa", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildProfitAndLoss(accounts, balance))
}
