package insights_test

import (
	"testing"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/insights"
)

func TestBuildMonthlyTrend_TwelveBucketsEndingAtAsOf(t *testing.T) {
	asOf := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)

	trend := insights.BuildMonthlyTrend(nil, asOf)
	if len(trend) != insights.TrendMonths {
		t.Fatalf("expected %d buckets, got %d", insights.TrendMonths, len(trend))
	}
	if trend[0].Label != "Mar 2024" {
		t.Errorf("expected first bucket 'Mar 2024', got '%s'", trend[0].Label)
	}
	if trend[11].Label != "Feb 2025" {
		t.Errorf("expected last bucket 'Feb 2025', got '%s'", trend[11].Label)
	}
	for i, b := range trend {
		if b.Revenue != 0 || b.BookingCount != 0 || b.UniqueCustomers != 0 {
			t.Errorf("bucket %d (%s): expected all zeros, got %+v", i, b.Label, b)
		}
	}
}

func TestBuildMonthlyTrend_BucketsFacts(t *testing.T) {
	asOf := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	facts := []domain.BookingFact{
		{CustomerKey: "alice@x.com", AmountPaid: 100, IsPaid: true, OccurredAt: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
		{CustomerKey: "bob@y.com", AmountPaid: 50, IsPaid: true, OccurredAt: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		{CustomerKey: "alice@x.com", AmountPaid: 0, IsPaid: false, OccurredAt: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
	}

	trend := insights.BuildMonthlyTrend(facts, asOf)

	jan := trend[10]
	if jan.Label != "Jan 2025" {
		t.Fatalf("expected bucket 10 to be 'Jan 2025', got '%s'", jan.Label)
	}
	if jan.Revenue != 150 {
		t.Errorf("expected January revenue 150, got %f", jan.Revenue)
	}
	if jan.BookingCount != 2 {
		t.Errorf("expected 2 January bookings, got %d", jan.BookingCount)
	}
	if jan.UniqueCustomers != 2 {
		t.Errorf("expected 2 unique January customers, got %d", jan.UniqueCustomers)
	}

	feb := trend[11]
	if feb.Revenue != 0 {
		t.Errorf("expected February revenue 0, got %f", feb.Revenue)
	}
	if feb.BookingCount != 1 {
		t.Errorf("expected 1 February booking, got %d", feb.BookingCount)
	}
	if feb.UniqueCustomers != 1 {
		t.Errorf("expected 1 unique February customer, got %d", feb.UniqueCustomers)
	}
}

func TestBuildMonthlyTrend_ExcludesFactsOutsideWindow(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	facts := []domain.BookingFact{
		// One month before the window opens.
		{CustomerKey: "old@x.com", AmountPaid: 999, IsPaid: true, OccurredAt: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		// After asOf's month would still land in the last bucket only if inside it;
		// a fact in the following month is out of range.
		{CustomerKey: "future@x.com", AmountPaid: 999, IsPaid: true, OccurredAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		// First instant of the window is included.
		{CustomerKey: "edge@x.com", AmountPaid: 10, IsPaid: true, OccurredAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
	}

	trend := insights.BuildMonthlyTrend(facts, asOf)

	var total float64
	var bookings int
	for _, b := range trend {
		total += b.Revenue
		bookings += b.BookingCount
	}
	if total != 10 {
		t.Errorf("expected only the edge fact's revenue 10, got %f", total)
	}
	if bookings != 1 {
		t.Errorf("expected 1 booking in window, got %d", bookings)
	}
	if trend[0].Label != "Jul 2024" {
		t.Errorf("expected window to open at 'Jul 2024', got '%s'", trend[0].Label)
	}
}

func TestBuildMonthlyTrend_WindowCrossesYearBoundary(t *testing.T) {
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	trend := insights.BuildMonthlyTrend(nil, asOf)
	if trend[0].Label != "Apr 2024" {
		t.Errorf("expected first bucket 'Apr 2024', got '%s'", trend[0].Label)
	}
	if trend[8].Label != "Dec 2024" {
		t.Errorf("expected bucket 8 'Dec 2024', got '%s'", trend[8].Label)
	}
	if trend[9].Label != "Jan 2025" {
		t.Errorf("expected bucket 9 'Jan 2025', got '%s'", trend[9].Label)
	}
}

func TestBuildMonthlyTrend_UnpaidFactsCountedButNoRevenue(t *testing.T) {
	asOf := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	facts := []domain.BookingFact{
		{CustomerKey: "a@x.com", AmountPaid: 0, IsPaid: false, OccurredAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{CustomerKey: "a@x.com", AmountPaid: 80, IsPaid: true, OccurredAt: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	trend := insights.BuildMonthlyTrend(facts, asOf)
	may := trend[11]
	if may.Revenue != 80 {
		t.Errorf("expected revenue 80, got %f", may.Revenue)
	}
	if may.BookingCount != 2 {
		t.Errorf("expected 2 bookings, got %d", may.BookingCount)
	}
	if may.UniqueCustomers != 1 {
		t.Errorf("expected 1 unique customer, got %d", may.UniqueCustomers)
	}
}
