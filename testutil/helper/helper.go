package helper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/testutil/helper/postgreswrapper"
)

// Fixture capability values shared across the booking test suite.
const (
	FixtureLanguage = "German"
	FixtureRating   = "Gold"
	FixtureProduct  = "SolarPanels"
)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// At places a clock time on the given day, in UTC.
func At(day time.Time, hour int, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

// FixtureFilter builds the availability filter matching the fixture
// capability holder created by GivenCapabilityHolder.
func FixtureFilter(day time.Time) booking.AvailabilityFilter {
	return booking.BuildAvailabilityFilter().
		OnDay(day).
		WithLanguage(FixtureLanguage).
		WithRating(FixtureRating).
		WithProducts(FixtureProduct).
		Finalize()
}

// GivenCapabilityHolder inserts a capability holder row and returns its id.
func GivenCapabilityHolder(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	languages []string,
	customerRatings []string,
	products []string,
) uuid.UUID {

	holderID := GivenUniqueID(t)

	postgreswrapper.Exec(t, wrapper, fmt.Sprintf(
		`INSERT INTO capability_holders (id, languages, customer_ratings, products) VALUES ('%s', %s, %s, %s)`,
		holderID.String(),
		textArrayLiteral(languages),
		textArrayLiteral(customerRatings),
		textArrayLiteral(products)))

	return holderID
}

// GivenFixtureCapabilityHolder inserts a holder matching FixtureFilter.
func GivenFixtureCapabilityHolder(t testing.TB, wrapper postgreswrapper.Wrapper) uuid.UUID {
	return GivenCapabilityHolder(
		t,
		wrapper,
		[]string{FixtureLanguage},
		[]string{FixtureRating},
		[]string{FixtureProduct})
}

// GivenFreeSlot inserts an unbooked slot row for the holder and returns its id.
func GivenFreeSlot(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	holderID uuid.UUID,
	startsAt time.Time,
	endsAt time.Time,
) uuid.UUID {

	slotID := GivenUniqueID(t)

	postgreswrapper.Exec(t, wrapper, fmt.Sprintf(
		`INSERT INTO slots (id, starts_at, ends_at, booked, holder_id) VALUES ('%s', '%s', '%s', FALSE, '%s')`,
		slotID.String(),
		startsAt.UTC().Format(time.RFC3339Nano),
		endsAt.UTC().Format(time.RFC3339Nano),
		holderID.String()))

	return slotID
}

// GivenBookedSlot inserts a slot row already booked by the requester and returns its id.
func GivenBookedSlot(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	holderID uuid.UUID,
	requesterID uuid.UUID,
	startsAt time.Time,
	endsAt time.Time,
) uuid.UUID {

	slotID := GivenUniqueID(t)

	postgreswrapper.Exec(t, wrapper, fmt.Sprintf(
		`INSERT INTO slots (id, starts_at, ends_at, booked, holder_id, requester_id) VALUES ('%s', '%s', '%s', TRUE, '%s', '%s')`,
		slotID.String(),
		startsAt.UTC().Format(time.RFC3339Nano),
		endsAt.UTC().Format(time.RFC3339Nano),
		holderID.String(),
		requesterID.String()))

	return slotID
}

// textArrayLiteral renders values as a Postgres text[] literal, with single
// quotes doubled.
func textArrayLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}

	return "ARRAY[" + strings.Join(quoted, ",") + "]::text[]"
}
