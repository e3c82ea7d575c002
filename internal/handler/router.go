package handler

import (
	"net/http"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/infra/observability"
	"github.com/venueops/venue-insights/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// The insights API is read-only and serves the venue operator dashboard.
func NewRouter(svc *service.InsightsService, auth AuthConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(auth, logger))

		r.Get("/insights/customers", customerInsightsHandler(svc, logger))
		r.Get("/insights/customers/top", topCustomersHandler(svc, logger))
		r.Get("/insights/trend", monthlyTrendHandler(svc, logger))
		r.Get("/metrics/engine", engineMetricsHandler(svc, logger))
	})

	return r
}

// ============================================================
// Customer insights report
// GET /v1/insights/customers
// ============================================================

func customerInsightsHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/insights/customers")
		defer span.End()

		asOf, err := parseAsOf(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.GetCustomerInsights(ctx, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ============================================================
// Customer leaderboards
// GET /v1/insights/customers/top?by=revenue|bookings&limit=N
// ============================================================

func topCustomersHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/insights/customers/top")
		defer span.End()

		asOf, err := parseAsOf(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		limit, err := parseLimit(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		by := r.URL.Query().Get("by")
		top, err := svc.GetTopCustomers(ctx, asOf, by, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": top})
	}
}

// ============================================================
// Monthly trend
// GET /v1/insights/trend
// ============================================================

func monthlyTrendHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/insights/trend")
		defer span.End()

		asOf, err := parseAsOf(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		trend, err := svc.GetMonthlyTrend(ctx, asOf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"trend": trend})
	}
}

// ============================================================
// Engine metrics & health
// ============================================================

func engineMetricsHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/metrics/engine")
		defer span.End()

		snapshot, err := svc.GetEngineMetrics(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func healthzHandler(svc *service.InsightsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "venue-insights", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if svc != nil {
			start := time.Now()
			err := svc.PingStore(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
