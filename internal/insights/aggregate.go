package insights

import "github.com/venueops/venue-insights/internal/domain"

// Aggregation is the result of folding normalized facts by customer key.
// PaidBookings and TotalRevenue are carried here because an aggregate does
// not retain per-fact detail, and the metric layer needs the global sums
// accumulated in fact order rather than map order. Float addition is not
// associative, so summing revenue over the map would make the total depend
// on iteration order.
type Aggregation struct {
	Aggregates   map[string]*domain.CustomerAggregate
	PaidBookings int
	TotalRevenue float64
}

// Aggregate groups facts by customer key in a single pass.
//
// Booking count increments unconditionally; paid revenue accumulates only
// for paid facts, both per customer and into the fact-order total. Key
// equality is exact string equality on the already normalized key. The
// fold is order-insensitive at the map level: any permutation of the input
// produces the same map content. Nothing downstream may rely on the map's
// iteration order.
func Aggregate(facts []domain.BookingFact) Aggregation {
	agg := Aggregation{
		Aggregates: make(map[string]*domain.CustomerAggregate, len(facts)),
	}

	for _, f := range facts {
		c, ok := agg.Aggregates[f.CustomerKey]
		if !ok {
			c = &domain.CustomerAggregate{CustomerKey: f.CustomerKey}
			agg.Aggregates[f.CustomerKey] = c
		}
		c.BookingCount++
		if f.IsPaid {
			c.PaidRevenue += f.AmountPaid
			agg.PaidBookings++
			agg.TotalRevenue += f.AmountPaid
		}
	}
	return agg
}
