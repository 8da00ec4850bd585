package booking

import (
	"time"

	"github.com/google/uuid"
)

// Slot represents a fixed time window offered by one capability holder.
//
// Booked transitions false -> true exactly once per slot; once booked,
// RequesterID is set and immutable. StartsAt is always before EndsAt.
type Slot struct {
	ID          uuid.UUID     `json:"id"`
	StartsAt    time.Time     `json:"start_date"`
	EndsAt      time.Time     `json:"end_date"`
	Booked      bool          `json:"booked"`
	HolderID    uuid.UUID     `json:"holder_id"`
	RequesterID uuid.NullUUID `json:"requester_id"`
}

// Overlaps reports whether the two slot windows overlap.
// Both comparisons are strict, so back-to-back (touching) slots do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return other.StartsAt.Before(s.EndsAt) && other.EndsAt.After(s.StartsAt)
}

// CapabilityHolder is the resource a slot belongs to, e.g. a servicing agent.
// It is read-only from the perspective of this module.
type CapabilityHolder struct {
	ID              uuid.UUID        `json:"id"`
	Languages       []LanguageString `json:"languages"`
	CustomerRatings []RatingString   `json:"customer_ratings"`
	Products        []ProductString  `json:"products"`
}
