// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
)

// BookingStore is the external query layer feeding the insights engine.
// It has already filtered bookings to approved/completed status and it
// alone can see the full customer population, so the global counts come
// from it rather than being derived from the fact snapshot.
type BookingStore interface {
	// FetchBookingFacts returns the projected booking rows for the
	// current snapshot.
	FetchBookingFacts(ctx context.Context) ([]domain.RawBookingFact, error)

	// FetchGlobalCounts returns population counts with activity cutoffs
	// computed relative to asOf.
	FetchGlobalCounts(ctx context.Context, asOf time.Time) (*domain.GlobalCounts, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
