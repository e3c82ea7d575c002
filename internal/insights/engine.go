package insights

import (
	"context"
	"time"

	"github.com/venueops/venue-insights/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("insights/engine")

// Engine assembles a full InsightsReport from a snapshot of booking facts
// and the externally computed population counts. It is safe for concurrent
// use: BuildReport reads only its arguments.
type Engine struct{}

// NewEngine creates the aggregation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// BuildReport runs the full pipeline: normalize, aggregate by customer,
// then the four independent downstream stages (scalar metrics, segments,
// leaderboards, monthly trend).
//
// counts and asOf are structurally required; missing either fails fast
// rather than guessing defaults. The downstream stages read only the
// immutable aggregation and fact list, so they run concurrently and join
// before assembly. Two invocations with the same inputs yield the same
// report content (the report ID and generation timestamp aside).
func (e *Engine) BuildReport(ctx context.Context, raws []domain.RawBookingFact, counts *domain.GlobalCounts, asOf time.Time) (*domain.InsightsReport, error) {
	ctx, span := tracer.Start(ctx, "Engine.BuildReport")
	defer span.End()

	if counts == nil {
		return nil, &domain.ErrValidation{Field: "globalCounts", Message: "required"}
	}
	if asOf.IsZero() {
		return nil, &domain.ErrValidation{Field: "asOf", Message: "required"}
	}

	facts := Normalize(raws)
	agg := Aggregate(facts)
	span.SetAttributes(
		attribute.Int("facts.raw", len(raws)),
		attribute.Int("facts.normalized", len(facts)),
		attribute.Int("customers.distinct", len(agg.Aggregates)),
	)

	var (
		metrics  domain.ScalarMetrics
		segments domain.SegmentCounts
		top      domain.Leaderboards
		trend    []domain.MonthlyBucket
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		metrics = ComputeMetrics(agg, *counts)
		return nil
	})
	g.Go(func() error {
		segments = SegmentCustomers(agg)
		return nil
	})
	g.Go(func() error {
		top = RankTop(agg, DefaultLeaderboardSize)
		return nil
	})
	g.Go(func() error {
		trend = BuildMonthlyTrend(facts, asOf)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.InsightsReport{
		ReportID:     uuid.New().String(),
		AsOf:         asOf,
		GeneratedAt:  time.Now().UTC(),
		Metrics:      metrics,
		Segments:     segments,
		TopCustomers: top,
		MonthlyTrend: trend,
	}, nil
}
