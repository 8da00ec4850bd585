package booking_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bookable-dev/slot-booking-go/booking"
)

func Test_GroupAvailableSlots(t *testing.T) {
	nineOClock := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	tenOClock := time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC)
	elevenOClock := time.Date(2026, 5, 3, 11, 0, 0, 0, time.UTC)

	firstID := uuid.MustParse("0196b3a0-0000-7000-8000-000000000001")
	secondID := uuid.MustParse("0196b3a0-0000-7000-8000-000000000002")
	thirdID := uuid.MustParse("0196b3a0-0000-7000-8000-000000000003")

	tests := []struct {
		name     string
		refs     []booking.AvailableSlotRef
		expected booking.Buckets
	}{
		{
			name:     "no_refs_yields_empty_bucket_sequence",
			refs:     []booking.AvailableSlotRef{},
			expected: booking.Buckets{},
		},
		{
			name: "single_ref_yields_single_bucket",
			refs: []booking.AvailableSlotRef{
				{ID: firstID, StartsAt: nineOClock},
			},
			expected: booking.Buckets{
				{StartsAt: nineOClock, SlotIDs: []uuid.UUID{firstID}, AvailableCount: 1},
			},
		},
		{
			name: "equal_starts_share_one_bucket_in_input_order",
			refs: []booking.AvailableSlotRef{
				{ID: firstID, StartsAt: nineOClock},
				{ID: secondID, StartsAt: nineOClock},
				{ID: thirdID, StartsAt: nineOClock},
			},
			expected: booking.Buckets{
				{StartsAt: nineOClock, SlotIDs: []uuid.UUID{firstID, secondID, thirdID}, AvailableCount: 3},
			},
		},
		{
			name: "distinct_starts_get_distinct_buckets",
			refs: []booking.AvailableSlotRef{
				{ID: firstID, StartsAt: nineOClock},
				{ID: secondID, StartsAt: tenOClock},
				{ID: thirdID, StartsAt: elevenOClock},
			},
			expected: booking.Buckets{
				{StartsAt: nineOClock, SlotIDs: []uuid.UUID{firstID}, AvailableCount: 1},
				{StartsAt: tenOClock, SlotIDs: []uuid.UUID{secondID}, AvailableCount: 1},
				{StartsAt: elevenOClock, SlotIDs: []uuid.UUID{thirdID}, AvailableCount: 1},
			},
		},
		{
			name: "mixed_starts_group_consecutively",
			refs: []booking.AvailableSlotRef{
				{ID: firstID, StartsAt: nineOClock},
				{ID: secondID, StartsAt: nineOClock},
				{ID: thirdID, StartsAt: tenOClock},
			},
			expected: booking.Buckets{
				{StartsAt: nineOClock, SlotIDs: []uuid.UUID{firstID, secondID}, AvailableCount: 2},
				{StartsAt: tenOClock, SlotIDs: []uuid.UUID{thirdID}, AvailableCount: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := booking.GroupAvailableSlots(tt.refs)
			assert.Equal(t, tt.expected, buckets)
		})
	}
}

func Test_Slot_Overlaps(t *testing.T) {
	nineToTen := booking.Slot{
		StartsAt: time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		startsAt time.Time
		endsAt   time.Time
		expected bool
	}{
		{
			name:     "identical_range_overlaps",
			startsAt: time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC),
			endsAt:   time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "partial_range_overlaps",
			startsAt: time.Date(2026, 5, 3, 9, 30, 0, 0, time.UTC),
			endsAt:   time.Date(2026, 5, 3, 10, 30, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "touching_at_end_does_not_overlap",
			startsAt: time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC),
			endsAt:   time.Date(2026, 5, 3, 11, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "touching_at_start_does_not_overlap",
			startsAt: time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC),
			endsAt:   time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "disjoint_range_does_not_overlap",
			startsAt: time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC),
			endsAt:   time.Date(2026, 5, 3, 13, 0, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := booking.Slot{StartsAt: tt.startsAt, EndsAt: tt.endsAt}
			assert.Equal(t, tt.expected, nineToTen.Overlaps(other))
		})
	}
}
