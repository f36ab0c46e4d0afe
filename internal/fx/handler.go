package fx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/platform/httpx"
)

// Handler exposes the exchange-rate registry over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the fx handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the rate endpoints under a company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/rates", h.list)
	r.Post("/companies/{companyID}/rates", h.upsert)
	r.Delete("/companies/{companyID}/rates/{rateID}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var in RateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	rate, err := h.service.Upsert(r.Context(), chi.URLParam(r, "companyID"), in)
	if errors.Is(err, ErrInvalidCurrency) || errors.Is(err, ErrInvalidDate) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("upsert rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rate)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "companyID"), chi.URLParam(r, "rateID"))
	if errors.Is(err, ErrRateNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("delete rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
