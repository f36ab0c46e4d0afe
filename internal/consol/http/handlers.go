package consolhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/hibiken/asynq"

	"github.com/finboard-hq/finboard/internal/consol"
	"github.com/finboard-hq/finboard/internal/platform/httpx"
	"github.com/finboard-hq/finboard/jobs"
)

// Warmer enqueues background report warmups after writes that invalidate
// cached reports. jobs.Client satisfies it.
type Warmer interface {
	EnqueueReportWarmup(ctx context.Context, payload jobs.ReportWarmupPayload) (*asynq.TaskInfo, error)
}

// Handler wires consolidation endpoints: the monthly series per company,
// consolidation adjustments, and the consolidated report itself.
type Handler struct {
	logger    *slog.Logger
	service   *consol.Service
	cache     *Cache
	warmer    Warmer
	builds    reportGroup
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the consolidation handler. The cache and warmer may
// be nil.
func NewHandler(logger *slog.Logger, service *consol.Service, cache *Cache, warmer Warmer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		cache:     cache,
		warmer:    warmer,
		rateLimit: httprate.LimitByIP(10, time.Minute),
	}
}

// warmReports schedules a background rebuild for the companies touched by a
// write. Enqueue failures are logged, never surfaced to the caller.
func (h *Handler) warmReports(ctx context.Context, companies []string) {
	if h.warmer == nil || len(companies) == 0 {
		return
	}
	_, err := h.warmer.EnqueueReportWarmup(ctx, jobs.ReportWarmupPayload{Companies: companies})
	if err != nil {
		h.logger.Warn("enqueue report warmup", slog.Any("error", err))
	}
}

// MountRoutes registers the consolidation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/companies/{companyID}/series", h.series)
	r.Put("/companies/{companyID}/series", h.saveSeries)
	r.Get("/consolidation/adjustments", h.listAdjustments)
	r.Post("/consolidation/adjustments", h.addAdjustment)
	r.Delete("/consolidation/adjustments/{adjID}", h.deleteAdjustment)
	r.Get("/reports", h.report)
	r.With(h.rateLimit).Get("/reports/export.csv", h.exportCSV)
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.Series(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.logger.Error("load series", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, series)
}

func (h *Handler) saveSeries(w http.ResponseWriter, r *http.Request) {
	var series consol.CompanySeries
	if err := httpx.DecodeJSON(r, &series); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	companyID := chi.URLParam(r, "companyID")
	if err := h.service.SaveSeries(r.Context(), companyID, series); err != nil {
		h.logger.Error("save series", slog.String("company", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
	h.warmReports(r.Context(), []string{companyID})
	httpx.NoContent(w)
}

func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	companies := splitParam(r.URL.Query().Get("companies"))
	adjustments, err := h.service.ListAdjustments(r.Context(), companies)
	if err != nil {
		h.logger.Error("list consolidation adjustments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, adjustments)
}

func (h *Handler) addAdjustment(w http.ResponseWriter, r *http.Request) {
	var in consol.AdjustmentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	adj, err := h.service.AddAdjustment(r.Context(), in)
	if err != nil {
		if errors.Is(err, consol.ErrInvalidAdjustment) {
			httpx.Problem(w, http.StatusBadRequest, "invalid adjustment", err.Error())
			return
		}
		h.logger.Error("add consolidation adjustment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
	h.warmReports(r.Context(), adj.Companies)
	httpx.JSON(w, http.StatusCreated, adj)
}

func (h *Handler) deleteAdjustment(w http.ResponseWriter, r *http.Request) {
	adjID := chi.URLParam(r, "adjID")
	// Companies are needed for the warmup and gone after the delete.
	var touched []string
	if all, err := h.service.ListAdjustments(r.Context(), nil); err == nil {
		for _, adj := range all {
			if adj.ID == adjID {
				touched = adj.Companies
				break
			}
		}
	}
	err := h.service.DeleteAdjustment(r.Context(), adjID)
	if err != nil {
		if errors.Is(err, consol.ErrAdjustmentNotFound) {
			httpx.Problem(w, http.StatusNotFound, "adjustment not found", err.Error())
			return
		}
		h.logger.Error("delete consolidation adjustment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
	h.warmReports(r.Context(), touched)
	httpx.NoContent(w)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	report, err := h.buildReport(r, query)
	if err != nil {
		if errors.Is(err, consol.ErrNoCompanies) {
			httpx.Problem(w, http.StatusBadRequest, "invalid query", err.Error())
			return
		}
		h.logger.Error("build consolidated report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// buildReport funnels identical concurrent requests through singleflight and
// the Redis cache before falling through to the engine.
func (h *Handler) buildReport(r *http.Request, query consol.Query) (consol.Report, error) {
	key := cacheKey(query)
	return h.builds.build(r.Context(), key, func(ctx context.Context) (consol.Report, error) {
		var report consol.Report
		err := h.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
			return h.service.GetReports(ctx, query)
		})
		return report, err
	})
}

var errUnexpectedPayload = errors.New("unexpected report payload")

func parseQuery(r *http.Request) (consol.Query, error) {
	params := r.URL.Query()
	query := consol.Query{
		Companies: splitParam(params.Get("companies")),
		Currency:  strings.ToUpper(strings.TrimSpace(params.Get("currency"))),
		From:      strings.TrimSpace(params.Get("from")),
		To:        strings.TrimSpace(params.Get("to")),
	}
	if len(query.Companies) == 0 {
		return consol.Query{}, errors.New("companies parameter is required")
	}
	return query, nil
}

func cacheKey(q consol.Query) string {
	companies := append([]string(nil), q.Companies...)
	sort.Strings(companies)
	return Key(strings.Join(companies, ","), q.Currency, q.From, q.To)
}

func splitParam(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
