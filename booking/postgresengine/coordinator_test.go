package postgresengine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine"
	"github.com/bookable-dev/slot-booking-go/testutil/config"
	"github.com/bookable-dev/slot-booking-go/testutil/helper"
	"github.com/bookable-dev/slot-booking-go/testutil/helper/postgreswrapper"
)

func Test_Reserve_ClaimsTheFirstFreeCandidate(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)
	firstSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 9, 0), helper.At(fixtureDay, 10, 0))
	secondSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 10, 0), helper.At(fixtureDay, 11, 0))
	requesterID := helper.GivenUniqueID(t)

	// act
	claimedSlot, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(requesterID, firstSlotID, secondSlotID))

	// assert
	assert.NoError(t, err, "error in reserving a slot")
	assert.Equal(t, firstSlotID, claimedSlot.ID)
	assert.True(t, claimedSlot.Booked)
	assert.True(t, claimedSlot.RequesterID.Valid)
	assert.Equal(t, requesterID, claimedSlot.RequesterID.UUID)

	claimedRow := postgreswrapper.GetSlotFromDB(t, wrapper, firstSlotID.String())
	assert.True(t, claimedRow.Booked)
	assert.Equal(t, requesterID, claimedRow.RequesterID.UUID)

	untouchedRow := postgreswrapper.GetSlotFromDB(t, wrapper, secondSlotID.String())
	assert.False(t, untouchedRow.Booked)
}

func Test_Reserve_SkipsAlreadyBookedCandidates(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)
	otherRequesterID := helper.GivenUniqueID(t)
	bookedSlotID := helper.GivenBookedSlot(
		t, wrapper, holderID, otherRequesterID, helper.At(fixtureDay, 9, 0), helper.At(fixtureDay, 10, 0))
	freeSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 10, 0), helper.At(fixtureDay, 11, 0))
	requesterID := helper.GivenUniqueID(t)

	// act
	claimedSlot, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(requesterID, bookedSlotID, freeSlotID))

	// assert
	assert.NoError(t, err, "error in reserving a slot")
	assert.Equal(t, freeSlotID, claimedSlot.ID)

	// the already booked slot still belongs to the other requester
	bookedRow := postgreswrapper.GetSlotFromDB(t, wrapper, bookedSlotID.String())
	assert.Equal(t, otherRequesterID, bookedRow.RequesterID.UUID)
}

func Test_Reserve_WhenAllCandidatesAreBooked_ReportsNoSlotAvailable(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)
	otherRequesterID := helper.GivenUniqueID(t)
	firstSlotID := helper.GivenBookedSlot(
		t, wrapper, holderID, otherRequesterID, helper.At(fixtureDay, 9, 0), helper.At(fixtureDay, 10, 0))
	secondSlotID := helper.GivenBookedSlot(
		t, wrapper, holderID, otherRequesterID, helper.At(fixtureDay, 10, 0), helper.At(fixtureDay, 11, 0))
	requesterID := helper.GivenUniqueID(t)

	// act
	_, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(requesterID, firstSlotID, secondSlotID))

	// assert
	assert.ErrorIs(t, err, booking.ErrNoSlotAvailable)
	assert.NotErrorIs(t, err, booking.ErrReservationFailed)
	assert.Equal(t, 2, postgreswrapper.CountBookedSlotsInDB(t, wrapper))
}

func Test_Reserve_WithEmptyCandidateList_ReportsNoSlotAvailable(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	// act
	_, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(helper.GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, booking.ErrNoSlotAvailable)
}

func Test_Reserve_WhenTheSlotsTableDoesNotExist_ReportsReservationFailure(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t, postgresengine.WithSlotsTableName("missing_slots"))
	coordinator := wrapper.GetReservationCoordinator()

	// act
	_, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(helper.GivenUniqueID(t), helper.GivenUniqueID(t)))

	// assert: a failed probe is a dependency fault, not an exhausted candidate list
	assert.ErrorIs(t, err, booking.ErrReservationFailed)
	assert.NotErrorIs(t, err, booking.ErrNoSlotAvailable)
}

func Test_Reserve_AgainstAClosedConnection_ReportsReservationFailure(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connPool, poolErr := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
	assert.NoError(t, poolErr, "error connecting to DB pool in test setup")

	coordinator, createErr := postgresengine.NewReservationCoordinatorFromPGXPool(connPool)
	assert.NoError(t, createErr, "error creating reservation coordinator")

	connPool.Close()

	// act
	_, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(helper.GivenUniqueID(t), helper.GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, booking.ErrReservationFailed)
}

func Test_Reserve_SkipsCandidates_LockedByAConcurrentTransaction(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	connPool, poolErr := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
	assert.NoError(t, poolErr, "error connecting to DB pool in test setup")
	defer connPool.Close()

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)
	contestedSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 9, 0), helper.At(fixtureDay, 10, 0))
	fallbackSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 10, 0), helper.At(fixtureDay, 11, 0))
	requesterID := helper.GivenUniqueID(t)

	// a competing transaction holds the row lock on the contested slot
	competingTx, txErr := connPool.Begin(ctxWithTimeout)
	assert.NoError(t, txErr, "error starting the competing transaction")
	defer func() { _ = competingTx.Rollback(context.Background()) }()

	_, lockErr := competingTx.Exec(
		ctxWithTimeout,
		fmt.Sprintf(`SELECT id FROM slots WHERE id = '%s' FOR UPDATE`, contestedSlotID.String()))
	assert.NoError(t, lockErr, "error locking the contested slot")

	// act
	claimedSlot, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(requesterID, contestedSlotID, fallbackSlotID))

	// assert
	assert.NoError(t, err, "error in reserving a slot")
	assert.Equal(t, fallbackSlotID, claimedSlot.ID)

	rollbackErr := competingTx.Rollback(ctxWithTimeout)
	assert.NoError(t, rollbackErr, "error rolling back the competing transaction")

	contestedRow := postgreswrapper.GetSlotFromDB(t, wrapper, contestedSlotID.String())
	assert.False(t, contestedRow.Booked)
}

//nolint:funlen
func Test_Reserve_ConcurrentRequests_NeverDoubleBook(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	const slotCount = 4
	const requestCount = 8

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)

	candidateSlotIDs := make([]uuid.UUID, 0, slotCount)
	for i := 0; i < slotCount; i++ {
		slotID := helper.GivenFreeSlot(
			t, wrapper, holderID, helper.At(fixtureDay, 9+i, 0), helper.At(fixtureDay, 10+i, 0))
		candidateSlotIDs = append(candidateSlotIDs, slotID)
	}

	// act: every request competes over the same candidate list
	var waitGroup sync.WaitGroup
	claimedSlots := make([]booking.Slot, requestCount)
	reserveErrs := make([]error, requestCount)

	for i := 0; i < requestCount; i++ {
		waitGroup.Add(1)

		go func(requestIndex int) {
			defer waitGroup.Done()

			requesterID := helper.GivenUniqueID(t)
			claimedSlots[requestIndex], reserveErrs[requestIndex] = coordinator.Reserve(
				ctxWithTimeout,
				booking.BuildReservationRequest(requesterID, candidateSlotIDs...))
		}(i)
	}

	waitGroup.Wait()

	// assert
	claimedIDs := make(map[uuid.UUID]bool)
	claimCount := 0
	exhaustedCount := 0

	for i := 0; i < requestCount; i++ {
		switch {
		case reserveErrs[i] == nil:
			claimCount++
			assert.False(t, claimedIDs[claimedSlots[i].ID], "slot claimed twice")
			claimedIDs[claimedSlots[i].ID] = true

		case errors.Is(reserveErrs[i], booking.ErrNoSlotAvailable):
			exhaustedCount++

		default:
			t.Errorf("unexpected reservation error: %v", reserveErrs[i])
		}
	}

	assert.Equal(t, slotCount, claimCount)
	assert.Equal(t, requestCount-slotCount, exhaustedCount)
	assert.Equal(t, slotCount, postgreswrapper.CountBookedSlotsInDB(t, wrapper))
}

func Test_Reserve_TriesCandidatesInTheCallerSuppliedOrder(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := setupBookingTest(t)
	coordinator := wrapper.GetReservationCoordinator()

	// arrange
	holderID := helper.GivenFixtureCapabilityHolder(t, wrapper)
	earlySlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 9, 0), helper.At(fixtureDay, 10, 0))
	lateSlotID := helper.GivenFreeSlot(t, wrapper, holderID, helper.At(fixtureDay, 15, 0), helper.At(fixtureDay, 16, 0))
	requesterID := helper.GivenUniqueID(t)

	// act: the late slot is listed first, so it wins despite starting later
	claimedSlot, err := coordinator.Reserve(
		ctxWithTimeout,
		booking.BuildReservationRequest(requesterID, lateSlotID, earlySlotID))

	// assert
	assert.NoError(t, err, "error in reserving a slot")
	assert.Equal(t, lateSlotID, claimedSlot.ID)

	earlyRow := postgreswrapper.GetSlotFromDB(t, wrapper, earlySlotID.String())
	assert.False(t, earlyRow.Booked)
}
