package insights

import "github.com/venueops/venue-insights/internal/domain"

// Booking-volume thresholds for customer tiers.
const vipBookingThreshold = 5

// SegmentCustomers buckets every aggregate into exactly one tier:
// vip (>= 5 bookings), regular (2-4) or first-time (exactly 1).
// The three counts always sum to the number of distinct customers;
// a zero booking count cannot occur because aggregates only exist
// for keys with at least one fact.
func SegmentCustomers(agg Aggregation) domain.SegmentCounts {
	var seg domain.SegmentCounts
	for _, c := range agg.Aggregates {
		switch {
		case c.BookingCount >= vipBookingThreshold:
			seg.VIP++
		case c.BookingCount > 1:
			seg.Regular++
		default:
			seg.FirstTime++
		}
	}
	return seg
}
