package booking

import (
	"github.com/google/uuid"
)

// ReservationRequest carries the ordered candidate slot ids for one
// reservation attempt. CandidateSlotIDs is the caller's preference order:
// earlier entries win. Duplicates are permitted but redundant, because a
// slot claimed (or skipped) once will be skipped again.
type ReservationRequest struct {
	CandidateSlotIDs []uuid.UUID
	RequesterID      uuid.UUID
}

// BuildReservationRequest creates a ReservationRequest, preserving the
// candidate order verbatim.
func BuildReservationRequest(requesterID uuid.UUID, candidateSlotIDs ...uuid.UUID) ReservationRequest {
	return ReservationRequest{
		CandidateSlotIDs: candidateSlotIDs,
		RequesterID:      requesterID,
	}
}
