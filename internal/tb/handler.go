package tb

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/platform/httpx"
)

// Handler exposes the trial-balance lifecycle over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the trial-balance handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the trial-balance endpoints under a company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/tb", h.list)
	r.Post("/companies/{companyID}/tb", h.add)
	r.Get("/companies/{companyID}/tb/{tbID}/totals", h.totals)
	r.Post("/companies/{companyID}/tb/{tbID}/status", h.updateStatus)
	r.Post("/companies/{companyID}/tb/{tbID}/adjustments", h.addAdjustment)
	r.Delete("/companies/{companyID}/tb/{tbID}/adjustments/{adjID}", h.deleteAdjustment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list trial balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balances)
}

type addRequest struct {
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Currency    string  `json:"currency"`
	Entries     []Entry `json:"entries"`
}

type addResponse struct {
	TB             TrialBalance `json:"tb"`
	Stripped       []string     `json:"stripped,omitempty"`
	FXFallbackUsed bool         `json:"fx_fallback_used"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	result, err := h.service.Add(r.Context(), chi.URLParam(r, "companyID"), AddInput{
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Currency:    req.Currency,
		Entries:     req.Entries,
	})
	if errors.Is(err, ErrNoEntries) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("add trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, addResponse{
		TB:             result.TB,
		Stripped:       result.Stripped,
		FXFallbackUsed: result.FXFallbackUsed,
	})
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Get(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "tbID"))
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("load trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ComputeAdjustedTotals(balance))
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "tbID"), req.Status)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case err != nil:
		h.logger.Error("update tb status", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.NoContent(w)
	}
}

func (h *Handler) addAdjustment(w http.ResponseWriter, r *http.Request) {
	var in AdjustmentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	adj, err := h.service.AddAdjustment(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "tbID"), in)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAdjustmentSides):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case err != nil:
		h.logger.Error("add tb adjustment", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.JSON(w, http.StatusCreated, adj)
	}
}

func (h *Handler) deleteAdjustment(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get("X-Actor")
	err := h.service.DeleteAdjustment(r.Context(),
		chi.URLParam(r, "companyID"), chi.URLParam(r, "tbID"), chi.URLParam(r, "adjID"), actor)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAdjustmentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case err != nil:
		h.logger.Error("delete tb adjustment", slog.Any("error", err))
		httpx.RespondError(w, err)
	default:
		httpx.NoContent(w)
	}
}
