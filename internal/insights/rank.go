package insights

import (
	"sort"

	"github.com/venueops/venue-insights/internal/domain"
)

// DefaultLeaderboardSize is the top-N cutoff for both leaderboards.
const DefaultLeaderboardSize = 10

// RankTop builds the two top-N leaderboards: by paid revenue and by booking
// count. Ties break on ascending customer key so the ordering is fully
// deterministic regardless of map iteration order. Each entry carries both
// metrics, whichever ordering produced it. When fewer than n customers
// exist, all of them are returned.
func RankTop(agg Aggregation, n int) domain.Leaderboards {
	entries := make([]domain.RankedCustomer, 0, len(agg.Aggregates))
	for _, c := range agg.Aggregates {
		entries = append(entries, domain.RankedCustomer{
			CustomerKey:  c.CustomerKey,
			PaidRevenue:  c.PaidRevenue,
			BookingCount: c.BookingCount,
		})
	}

	byRevenue := make([]domain.RankedCustomer, len(entries))
	copy(byRevenue, entries)
	sort.Slice(byRevenue, func(i, j int) bool {
		if byRevenue[i].PaidRevenue != byRevenue[j].PaidRevenue {
			return byRevenue[i].PaidRevenue > byRevenue[j].PaidRevenue
		}
		return byRevenue[i].CustomerKey < byRevenue[j].CustomerKey
	})

	byBookings := entries
	sort.Slice(byBookings, func(i, j int) bool {
		if byBookings[i].BookingCount != byBookings[j].BookingCount {
			return byBookings[i].BookingCount > byBookings[j].BookingCount
		}
		return byBookings[i].CustomerKey < byBookings[j].CustomerKey
	})

	return domain.Leaderboards{
		ByRevenue:  truncate(byRevenue, n),
		ByBookings: truncate(byBookings, n),
	}
}

func truncate(entries []domain.RankedCustomer, n int) []domain.RankedCustomer {
	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
