package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/infra/resilience"
	"github.com/venueops/venue-insights/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return supabase.NewClient(
		server.Client(),
		server.URL,
		"anon-key",
		"service-key",
		resilience.NewCircuitBreaker("test"),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func TestFetchBookingFacts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/bookings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("missing service role bearer")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"customer_email":"alice@x.com","amount_paid":100,"is_paid":true,"created_at":"2025-01-10T00:00:00Z"},
			{"customer_email":"bob@y.com","amount_paid":50,"is_paid":true,"created_at":"2025-01-20T00:00:00Z"}
		]`))
	})

	facts, err := client.FetchBookingFacts(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}
	if facts[0].CustomerEmail != "alice@x.com" || facts[0].AmountPaid != 100 {
		t.Errorf("unexpected first fact: %+v", facts[0])
	}
}

func TestFetchGlobalCounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/customer_global_counts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"total_customers":42,"recent_active_customers":30,"churned_customers":5}]`))
	})

	counts, err := client.FetchGlobalCounts(context.Background(), time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if counts.TotalCustomers != 42 || counts.RecentActiveCustomers != 30 || counts.ChurnedCustomers != 5 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestFetchGlobalCounts_SingleObjectResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_customers":7,"recent_active_customers":7,"churned_customers":0}`))
	})

	counts, err := client.FetchGlobalCounts(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if counts.TotalCustomers != 7 {
		t.Errorf("expected 7 total customers, got %d", counts.TotalCustomers)
	}
}

func TestFetchBookingFacts_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	_, err := client.FetchBookingFacts(context.Background())
	if err == nil {
		t.Fatal("expected an error on 500 response")
	}
}

func TestFetchBookingFacts_OpenBreakerYieldsCircuitOpen(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	// Drive the breaker past its failure-ratio threshold.
	for i := 0; i < 6; i++ {
		client.FetchBookingFacts(context.Background())
	}

	_, err := client.FetchBookingFacts(context.Background())
	var circuitOpen *domain.ErrCircuitOpen
	if !errors.As(err, &circuitOpen) {
		t.Fatalf("expected ErrCircuitOpen once the breaker trips, got %v", err)
	}
	if circuitOpen.Service != "supabase" {
		t.Errorf("expected service supabase, got %q", circuitOpen.Service)
	}
}
