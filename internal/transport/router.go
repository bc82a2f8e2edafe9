package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bosflow/bosflow/internal/backup"
	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/internal/evolution"
	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/internal/validation"
	"github.com/bosflow/bosflow/model"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config             *config.Config
	Authenticate       func(http.Handler) http.Handler
	CapabilityResolver model.CapabilityResolver
	Validation         *validation.Engine
	Evolution          *evolution.Service
	Backups            backup.Store
	Metrics            *observability.Metrics
	Ready              observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes — bypass authentication.
	r.Get("/ui/health", observability.HandleHealth())
	r.Get("/ui/ready", observability.HandleReady(deps.Ready))
	r.Handle("/metrics", observability.Handler())

	validationH := NewValidationHandler(deps.Validation, deps.Metrics)
	evolutionH := NewEvolutionHandler(deps.Evolution)
	backupH := NewBackupHandler(deps.Backups)

	// Authenticated routes — full middleware chain.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)
		r.Use(observability.TracingMiddleware)
		r.Use(BuildRequestContext)
		r.Use(ResolveCapabilities(deps.CapabilityResolver))
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireCapability("bos:validation:run"))
			r.Post("/validate", validationH.Validate)
			r.Post("/validate/quick", validationH.QuickValidate)
			r.Post("/validate/category/{category}", validationH.ValidateCategory)
			r.Post("/validate/report", validationH.Report)
		})
		r.With(RequireCapability("bos:validation:read")).
			Get("/requirements/{category}", validationH.Requirements)

		r.With(RequireCapability("bos:evolution:plan")).
			Post("/evolution/compatibility", evolutionH.Compatibility)
		r.With(RequireCapability("bos:evolution:plan")).
			Post("/evolution/plan", evolutionH.Plan)
		r.With(RequireCapability("bos:evolution:execute")).
			Post("/evolution/execute", evolutionH.Execute)
		r.With(RequireCapability("bos:evolution:rollback")).
			Post("/evolution/rollback", evolutionH.Rollback)

		r.With(RequireCapability("bos:backup:read")).
			Get("/backups", backupH.List)
		r.With(RequireCapability("bos:backup:delete")).
			Delete("/backups/{backupId}", backupH.Delete)
	})

	return r
}
