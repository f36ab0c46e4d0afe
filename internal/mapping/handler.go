package mapping

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/platform/httpx"
)

// Handler exposes the mapping pipeline over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the mapping handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the mapping endpoints under a company scope.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/mapping", h.saved)
	r.Put("/companies/{companyID}/mapping", h.save)
	r.Post("/companies/{companyID}/mapping/resolve", h.resolve)
}

func (h *Handler) saved(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.service.Saved(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("load mapping", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapping)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var mapping map[string]string
	if err := httpx.DecodeJSON(r, &mapping); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.service.Save(r.Context(), chi.URLParam(r, "companyID"), mapping); err != nil {
		h.logger.Error("save mapping", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var rows []RawAccountRow
	if err := httpx.DecodeJSON(r, &rows); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	res, err := h.service.ResolveRows(r.Context(), chi.URLParam(r, "companyID"), rows)
	if errors.Is(err, ErrInvalidRow) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("resolve rows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
