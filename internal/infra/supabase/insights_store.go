package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// bookingFactsQuery selects the columns the engine consumes, restricted to
// bookings that count toward analytics. Rejected and cancelled bookings are
// filtered server-side so the snapshot stays small.
const bookingFactsQuery = "bookings?status=in.(approved,completed)&select=customer_email,amount_paid,is_paid,created_at&order=created_at.asc"

// FetchBookingFacts retrieves the raw booking rows for aggregation.
// Rows come back unnormalized; the engine owns cleaning and parsing.
func (c *Client) FetchBookingFacts(ctx context.Context) ([]domain.RawBookingFact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FetchBookingFacts")
	defer span.End()

	body, err := c.withResilience(ctx, func() ([]byte, error) {
		return c.doGet(ctx, bookingFactsQuery)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if body == nil {
		return []domain.RawBookingFact{}, nil
	}

	var facts []domain.RawBookingFact
	if err := json.Unmarshal(body, &facts); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal booking facts: %w", err)
	}

	span.SetAttributes(attribute.Int("facts.count", len(facts)))
	return facts, nil
}

// globalCountsRow mirrors the customer_global_counts RPC result.
type globalCountsRow struct {
	TotalCustomers        int `json:"total_customers"`
	RecentActiveCustomers int `json:"recent_active_customers"`
	ChurnedCustomers      int `json:"churned_customers"`
}

// FetchGlobalCounts calls the customer_global_counts stored procedure, which
// classifies the whole customer population relative to asOf. The engine
// cannot derive these from the booking snapshot alone.
func (c *Client) FetchGlobalCounts(ctx context.Context, asOf time.Time) (*domain.GlobalCounts, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FetchGlobalCounts", trace.WithAttributes(
		attribute.String("as_of", asOf.Format(time.RFC3339)),
	))
	defer span.End()

	body, err := c.withResilience(ctx, func() ([]byte, error) {
		return c.doRPC(ctx, "customer_global_counts", map[string]any{
			"as_of": asOf.Format(time.RFC3339),
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "global counts", ID: asOf.Format("2006-01-02")}
	}

	// PostgREST returns set-returning functions as an array.
	var rows []globalCountsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		var single globalCountsRow
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to unmarshal global counts: %w", err)
		}
		rows = []globalCountsRow{single}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "global counts", ID: asOf.Format("2006-01-02")}
	}

	row := rows[0]
	return &domain.GlobalCounts{
		TotalCustomers:        row.TotalCustomers,
		RecentActiveCustomers: row.RecentActiveCustomers,
		ChurnedCustomers:      row.ChurnedCustomers,
	}, nil
}

// withResilience runs fn behind the bulkhead and circuit breaker with retry + backoff.
func (c *Client) withResilience(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "supabase request"}
	}
	defer c.bulkhead.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var innerErr error
			body, innerErr = fn()
			return innerErr
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return nil, err
	}
	return body, nil
}
