package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finboard-hq/finboard/internal/audit"
	"github.com/finboard-hq/finboard/internal/coa"
	consolhttp "github.com/finboard-hq/finboard/internal/consol/http"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/mapping"
	"github.com/finboard-hq/finboard/internal/reports"
	"github.com/finboard-hq/finboard/internal/tb"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	CoA     *coa.Handler
	FX      *fx.Handler
	Mapping *mapping.Handler
	TB      *tb.Handler
	Audit   *audit.Handler
	Reports *reports.Handler
	Consol  *consolhttp.Handler
}

// NewRouter constructs the chi.Router with Finboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		params.CoA.MountRoutes(api)
		params.FX.MountRoutes(api)
		params.Mapping.MountRoutes(api)
		params.TB.MountRoutes(api)
		params.Audit.MountRoutes(api)
		params.Reports.MountRoutes(api)
		params.Consol.MountRoutes(api)
	})

	return r
}
