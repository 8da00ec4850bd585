// Package booking provides the core abstractions and types for slot
// availability queries and concurrency-safe slot reservations.
//
// This package defines the data model shared by the engine implementations:
// slots owned by capability holders, availability filters, grouped
// availability buckets, reservation requests, common error definitions and
// the cache port fronting availability reads.
//
// Key types:
//   - Slot: a fixed time window offered by one capability holder
//   - CapabilityHolder: the resource a slot belongs to, with supported
//     language/rating/product attributes
//   - AvailabilityFilter: day + language + rating + product set criteria
//   - AvailabilityBucket: same-start grouping of available slots
//   - BucketCache: read-through cache port keyed by the normalized filter
//
// Common usage pattern:
//
//	filter := booking.BuildAvailabilityFilter().
//		OnDay(day).
//		WithLanguage("German").
//		WithRating("Gold").
//		WithProducts("SolarPanels").
//		Finalize()
//
//	buckets, err := engine.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	slot, err := coordinator.Reserve(ctx, booking.BuildReservationRequest(requesterID, candidateIDs...))
//	if errors.Is(err, booking.ErrNoSlotAvailable) {
//		// expected outcome, nothing claimable
//	}
package booking
