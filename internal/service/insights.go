// Package service provides the business logic layer (use cases).
// InsightsService orchestrates the analytics pipeline: it fetches booking
// facts and population counts from the store, runs the pure aggregation
// engine, and caches the resulting report.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/infra/observability"
	"github.com/venueops/venue-insights/internal/insights"
	"github.com/venueops/venue-insights/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var insightsTracer = otel.Tracer("service/insights")

// InsightsService builds customer analytics reports on demand.
type InsightsService struct {
	store   port.BookingStore
	engine  *insights.Engine
	cache   port.Cache[*domain.InsightsReport]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInsightsService creates a new insights service.
func NewInsightsService(store port.BookingStore, engine *insights.Engine, cache port.Cache[*domain.InsightsReport], metrics *observability.Metrics, logger *zap.Logger) *InsightsService {
	return &InsightsService{
		store:   store,
		engine:  engine,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// reportCacheKey buckets reports by calendar day so repeated dashboard loads
// within the TTL share one report. Two asOf instants on the same day can
// therefore serve a report whose activity cutoffs were computed at the
// earlier instant; the cache TTL bounds that drift, so it is at most
// CACHE_TTL within a 90-day window.
func reportCacheKey(asOf time.Time) string {
	return "report:" + asOf.Format("2006-01-02")
}

// GetCustomerInsights returns the full analytics report as of the given time.
func (s *InsightsService) GetCustomerInsights(ctx context.Context, asOf time.Time) (*domain.InsightsReport, error) {
	ctx, span := insightsTracer.Start(ctx, "InsightsService.GetCustomerInsights")
	defer span.End()
	span.SetAttributes(attribute.String("as_of", asOf.Format(time.RFC3339)))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("customer_insights", time.Since(start)) }()

	if asOf.IsZero() {
		return nil, &domain.ErrValidation{Field: "asOf", Message: "must not be zero"}
	}

	key := reportCacheKey(asOf)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("report")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	s.metrics.IncrCacheMiss("report")

	// The fact snapshot and the population counts are independent queries.
	var (
		raws   []domain.RawBookingFact
		counts *domain.GlobalCounts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = s.store.FetchBookingFacts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.store.FetchGlobalCounts(gctx, asOf)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("supabase")
		s.metrics.IncrReport("error")
		s.logger.Error("failed to fetch analytics inputs",
			zap.Time("as_of", asOf),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "supabase", Err: err}
	}

	report, err := s.engine.BuildReport(ctx, raws, counts, asOf)
	if err != nil {
		s.metrics.IncrReport("error")
		s.logger.Error("report build failed", zap.Error(err))
		return nil, err
	}

	// The engine does not retain the raw slice, so re-run normalization
	// once to count how many rows it discarded.
	dropped := len(raws) - len(insights.Normalize(raws))
	s.metrics.RecordFacts(len(raws)-dropped, dropped)
	s.metrics.IncrReport("success")

	s.cache.Set(key, report)

	s.logger.Info("insights report built",
		zap.String("report_id", report.ReportID),
		zap.Time("as_of", asOf),
		zap.Int("raw_facts", len(raws)),
		zap.Float64("total_revenue", report.Metrics.TotalRevenue),
	)

	return report, nil
}

// GetTopCustomers returns one leaderboard from the report.
// by must be "revenue" or "bookings"; limit of 0 means the default size.
func (s *InsightsService) GetTopCustomers(ctx context.Context, asOf time.Time, by string, limit int) ([]domain.RankedCustomer, error) {
	ctx, span := insightsTracer.Start(ctx, "InsightsService.GetTopCustomers")
	defer span.End()

	by = strings.ToLower(strings.TrimSpace(by))
	if by == "" {
		by = "revenue"
	}
	if by != "revenue" && by != "bookings" {
		return nil, &domain.ErrValidation{Field: "by", Message: "must be 'revenue' or 'bookings'"}
	}
	if limit < 0 {
		return nil, &domain.ErrValidation{Field: "limit", Message: "must not be negative"}
	}
	if limit == 0 || limit > insights.DefaultLeaderboardSize {
		limit = insights.DefaultLeaderboardSize
	}

	report, err := s.GetCustomerInsights(ctx, asOf)
	if err != nil {
		return nil, err
	}

	board := report.TopCustomers.ByRevenue
	if by == "bookings" {
		board = report.TopCustomers.ByBookings
	}
	if limit < len(board) {
		board = board[:limit]
	}
	return board, nil
}

// GetMonthlyTrend returns the trailing twelve month revenue trend.
func (s *InsightsService) GetMonthlyTrend(ctx context.Context, asOf time.Time) ([]domain.MonthlyBucket, error) {
	ctx, span := insightsTracer.Start(ctx, "InsightsService.GetMonthlyTrend")
	defer span.End()

	report, err := s.GetCustomerInsights(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return report.MonthlyTrend, nil
}

// PingStore checks that the booking store is reachable.
func (s *InsightsService) PingStore(ctx context.Context) error {
	_, err := s.store.FetchGlobalCounts(ctx, time.Now().UTC())
	return err
}

// GetEngineMetrics reports operational counters for the engine itself.
func (s *InsightsService) GetEngineMetrics(ctx context.Context) (*domain.EngineMetrics, error) {
	_, span := insightsTracer.Start(ctx, "InsightsService.GetEngineMetrics")
	defer span.End()

	return s.metrics.GetEngineSnapshot(), nil
}
