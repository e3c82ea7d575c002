package insights

import (
	"time"

	"github.com/venueops/venue-insights/internal/domain"
)

// TrendMonths is the fixed width of the monthly trend window.
const TrendMonths = 12

// BuildMonthlyTrend buckets facts into the 12 calendar months ending with
// the month containing asOf. Bucket boundaries are calendar months in
// asOf's location; facts outside the window are excluded entirely, never
// folded into an edge bucket. Months with no facts still appear, with all
// three values zero.
func BuildMonthlyTrend(facts []domain.BookingFact, asOf time.Time) []domain.MonthlyBucket {
	loc := asOf.Location()
	// First instant of the window: 11 months before asOf's month.
	windowStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(TrendMonths - 1), 0)

	buckets := make([]domain.MonthlyBucket, TrendMonths)
	uniques := make([]map[string]struct{}, TrendMonths)
	for i := range buckets {
		monthStart := windowStart.AddDate(0, i, 0)
		buckets[i] = domain.MonthlyBucket{Label: monthStart.Format("Jan 2006")}
		uniques[i] = make(map[string]struct{})
	}

	for _, f := range facts {
		idx, ok := bucketIndex(windowStart, f.OccurredAt.In(loc))
		if !ok {
			continue
		}
		buckets[idx].BookingCount++
		if f.IsPaid {
			buckets[idx].Revenue += f.AmountPaid
		}
		uniques[idx][f.CustomerKey] = struct{}{}
	}

	for i := range buckets {
		buckets[i].UniqueCustomers = len(uniques[i])
	}
	return buckets
}

// bucketIndex maps a timestamp to its month offset from the window start.
func bucketIndex(windowStart, t time.Time) (int, bool) {
	idx := (t.Year()-windowStart.Year())*12 + int(t.Month()) - int(windowStart.Month())
	if idx < 0 || idx >= TrendMonths {
		return 0, false
	}
	return idx, true
}
