// Package insights implements the customer analytics aggregation engine
// behind the admin app's Customer Insights screen. The engine is a pure,
// stateless pipeline: it holds no state between invocations and performs
// no I/O; every report is recomputed from the snapshot of facts it is given.
package insights

import (
	"strings"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
)

// Normalize coerces raw booking rows into canonical facts.
//
// The customer key is the trimmed, lower-cased email, so rows whose emails
// differ only by case or surrounding whitespace collapse onto one customer.
// Unpaid or negative amounts are clamped to zero. Rows with an unusable
// key or timestamp are dropped silently; they are expected noise, not errors.
func Normalize(raws []domain.RawBookingFact) []domain.BookingFact {
	facts := make([]domain.BookingFact, 0, len(raws))
	for _, r := range raws {
		key := strings.ToLower(strings.TrimSpace(r.CustomerEmail))
		if key == "" || !strings.Contains(key, "@") {
			continue
		}

		occurredAt, ok := parseOccurredAt(r.OccurredAt)
		if !ok {
			continue
		}

		amount := r.AmountPaid
		if !r.IsPaid || amount < 0 {
			amount = 0
		}

		facts = append(facts, domain.BookingFact{
			CustomerKey: key,
			AmountPaid:  amount,
			IsPaid:      r.IsPaid,
			OccurredAt:  occurredAt,
		})
	}
	return facts
}

// parseOccurredAt accepts the two timestamp layouts the booking table has
// historically stored: full RFC3339 and bare dates.
func parseOccurredAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
