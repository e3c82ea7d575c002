package insights

import (
	"math"

	"github.com/venueops/venue-insights/internal/domain"
)

// ComputeMetrics derives the scalar report figures from the aggregates and
// the externally supplied population counts.
//
// Every division is guarded: a zero denominator yields 0, never NaN or Inf.
// Sums are carried at full precision; rounding happens once on the returned
// values (currency to whole units, rates to one decimal, both half-up).
func ComputeMetrics(agg Aggregation, counts domain.GlobalCounts) domain.ScalarMetrics {
	// Revenue comes from the aggregation's fact-order sum. The map is only
	// consulted for integer counts, which cannot vary with iteration order.
	totalRevenue := agg.TotalRevenue

	var (
		withRevenue     int
		repeatCustomers int
	)
	for _, c := range agg.Aggregates {
		if c.PaidRevenue > 0 {
			withRevenue++
		}
		if c.BookingCount > 1 {
			repeatCustomers++
		}
	}

	avgCLV := safeDiv(totalRevenue, float64(withRevenue))
	avgBooking := safeDiv(totalRevenue, float64(agg.PaidBookings))
	repeatRate := safeDiv(float64(repeatCustomers), float64(counts.TotalCustomers)) * 100
	churnRate := safeDiv(
		float64(counts.ChurnedCustomers),
		float64(counts.RecentActiveCustomers+counts.ChurnedCustomers),
	) * 100

	return domain.ScalarMetrics{
		TotalRevenue:               roundCurrency(totalRevenue),
		UniqueCustomersWithRevenue: withRevenue,
		AvgCustomerLifetimeValue:   roundCurrency(avgCLV),
		PaidBookings:               agg.PaidBookings,
		AvgBookingValue:            roundCurrency(avgBooking),
		RepeatCustomers:            repeatCustomers,
		RepeatCustomerRate:         roundRate(repeatRate),
		ChurnRate:                  roundRate(churnRate),
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Half-up rounding. All inputs are non-negative by invariant, so the
// negative-half case does not arise.
func roundCurrency(v float64) float64 {
	return math.Floor(v + 0.5)
}

func roundRate(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
