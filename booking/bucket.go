package booking

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityBucket groups the available slots sharing one exact start
// timestamp. AvailableCount always equals len(SlotIDs).
type AvailabilityBucket struct {
	StartsAt       time.Time   `json:"start_date"`
	SlotIDs        []uuid.UUID `json:"slot_ids"`
	AvailableCount int         `json:"available_count"`
}

// Buckets is an ordered sequence of AvailabilityBucket, ascending by start timestamp.
type Buckets []AvailabilityBucket

// AvailableSlotRef is one surviving row of an availability query:
// the slot's identity and its start timestamp.
type AvailableSlotRef struct {
	ID       uuid.UUID
	StartsAt time.Time
}

// GroupAvailableSlots folds refs into buckets, one bucket per distinct start
// timestamp, preserving the incoming slot id order within each bucket.
//
// The input must already be ordered by start timestamp (the query engine
// orders by starts_at, id); consecutive refs with equal starts land in the
// same bucket.
func GroupAvailableSlots(refs []AvailableSlotRef) Buckets {
	buckets := make(Buckets, 0)

	for _, ref := range refs {
		last := len(buckets) - 1

		if last >= 0 && buckets[last].StartsAt.Equal(ref.StartsAt) {
			buckets[last].SlotIDs = append(buckets[last].SlotIDs, ref.ID)
			buckets[last].AvailableCount = len(buckets[last].SlotIDs)

			continue
		}

		buckets = append(buckets, AvailabilityBucket{
			StartsAt:       ref.StartsAt,
			SlotIDs:        []uuid.UUID{ref.ID},
			AvailableCount: 1,
		})
	}

	return buckets
}
