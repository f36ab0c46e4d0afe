package audit

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/finboard-hq/finboard/internal/platform/httpx"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// Handler exposes the audit timeline and its CSV export.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the audit endpoints. The export is rate limited per
// client IP since it walks the full log.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/audit", h.list)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.LimitByIP(exportRateLimit, exportRateWindow))
		gr.Get("/companies/{companyID}/audit/export.csv", h.exportCSV)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("list audit events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("export audit events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "entity", "entity_id", "action", "actor", "at"})
	for _, e := range events {
		_ = cw.Write([]string{e.ID, e.Entity, e.EntityID, e.Action, e.Actor, e.At.Format(time.RFC3339)})
	}
	cw.Flush()
}
