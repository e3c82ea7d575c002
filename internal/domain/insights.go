package domain

import "time"

// ============================================================
// Booking facts (engine input)
// ============================================================

// RawBookingFact is one booking row as delivered by the query layer.
// Upstream has already filtered bookings to approved/completed status and
// projected the four fields the insights engine needs. Timestamps arrive as
// strings because the transport is JSON over PostgREST.
type RawBookingFact struct {
	CustomerEmail string  `json:"customer_email"`
	AmountPaid    float64 `json:"amount_paid"`
	IsPaid        bool    `json:"is_paid"`
	OccurredAt    string  `json:"created_at"`
}

// BookingFact is a normalized booking record. CustomerKey is the trimmed,
// lower-cased email, the only customer identity the engine knows about.
// AmountPaid is zero whenever IsPaid is false.
type BookingFact struct {
	CustomerKey string    `json:"customer_key"`
	AmountPaid  float64   `json:"amount_paid"`
	IsPaid      bool      `json:"is_paid"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// CustomerAggregate is the per-customer rollup of booking facts.
type CustomerAggregate struct {
	CustomerKey  string  `json:"customer_key"`
	BookingCount int     `json:"booking_count"`
	PaidRevenue  float64 `json:"paid_revenue"`
}

// GlobalCounts are population-level counts supplied by the query layer,
// computed over the full customer table (not just customers with facts in
// the current snapshot). The engine never derives these itself: a fact-only
// view cannot tell "no recent booking" from "never a customer".
type GlobalCounts struct {
	TotalCustomers        int `json:"total_customers"`
	RecentActiveCustomers int `json:"recent_active_customers"`
	ChurnedCustomers      int `json:"churned_customers"`
}

// ============================================================
// Insights report (engine output)
// ============================================================

// ScalarMetrics are the aggregate figures on the Customer Insights screen.
// Currency fields are rounded to whole units, rates to one decimal.
type ScalarMetrics struct {
	TotalRevenue               float64 `json:"totalRevenue"`
	UniqueCustomersWithRevenue int     `json:"uniqueCustomersWithRevenue"`
	AvgCustomerLifetimeValue   float64 `json:"avgCustomerLifetimeValue"`
	PaidBookings               int     `json:"paidBookings"`
	AvgBookingValue            float64 `json:"avgBookingValue"`
	RepeatCustomers            int     `json:"repeatCustomers"`
	RepeatCustomerRate         float64 `json:"repeatCustomerRate"`
	ChurnRate                  float64 `json:"churnRate"`
}

// SegmentCounts is the three-way customer segmentation by booking volume.
type SegmentCounts struct {
	VIP       int `json:"vip"`
	Regular   int `json:"regular"`
	FirstTime int `json:"firstTime"`
}

// RankedCustomer is one leaderboard entry. Both metrics are present
// regardless of which ordering produced the entry.
type RankedCustomer struct {
	CustomerKey  string  `json:"customerKey"`
	PaidRevenue  float64 `json:"paidRevenue"`
	BookingCount int     `json:"bookingCount"`
}

// Leaderboards holds the two independent top-N orderings.
type Leaderboards struct {
	ByRevenue  []RankedCustomer `json:"byRevenue"`
	ByBookings []RankedCustomer `json:"byBookings"`
}

// MonthlyBucket is one calendar month of the trend window.
type MonthlyBucket struct {
	Label           string  `json:"label"` // e.g. "Jan 2025"
	Revenue         float64 `json:"revenue"`
	BookingCount    int     `json:"bookingCount"`
	UniqueCustomers int     `json:"uniqueCustomers"`
}

// InsightsReport is the full output of one engine invocation. It is
// constructed once, returned to the caller, and never mutated afterward.
type InsightsReport struct {
	ReportID     string          `json:"reportId"`
	AsOf         time.Time       `json:"asOf"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Metrics      ScalarMetrics   `json:"metrics"`
	Segments     SegmentCounts   `json:"segments"`
	TopCustomers Leaderboards    `json:"topCustomers"`
	MonthlyTrend []MonthlyBucket `json:"monthlyTrend"`
}

// ============================================================
// Health
// ============================================================

// ServiceHealth reports the status of one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // healthy, degraded, unhealthy
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate health response.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// EngineMetrics is the JSON snapshot returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	ReportsBuilt  int64   `json:"reports_built"`
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	FactsConsumed int64   `json:"facts_consumed"`
	FactsDropped  int64   `json:"facts_dropped"`
	Period        string  `json:"period"`
}
