package postgresengine_test

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine"
	"github.com/bookable-dev/slot-booking-go/testutil/config"
)

func Test_NewEngines_WithNilConnection_ReturnError(t *testing.T) {
	_, engineErr := postgresengine.NewAvailabilityQueryEngineFromPGXPool(nil)
	assert.ErrorIs(t, engineErr, booking.ErrNilDatabaseConnection)

	_, engineErr = postgresengine.NewAvailabilityQueryEngineFromSQLDB(nil)
	assert.ErrorIs(t, engineErr, booking.ErrNilDatabaseConnection)

	_, engineErr = postgresengine.NewAvailabilityQueryEngineFromSQLX(nil)
	assert.ErrorIs(t, engineErr, booking.ErrNilDatabaseConnection)

	_, coordinatorErr := postgresengine.NewReservationCoordinatorFromPGXPool(nil)
	assert.ErrorIs(t, coordinatorErr, booking.ErrNilDatabaseConnection)

	_, coordinatorErr = postgresengine.NewReservationCoordinatorFromSQLDB(nil)
	assert.ErrorIs(t, coordinatorErr, booking.ErrNilDatabaseConnection)

	_, coordinatorErr = postgresengine.NewReservationCoordinatorFromSQLX(nil)
	assert.ErrorIs(t, coordinatorErr, booking.ErrNilDatabaseConnection)
}

func Test_Options_RejectInvalidValues(t *testing.T) {
	// sql.Open is lazy, no live database is needed to exercise option validation
	db, openErr := sql.Open("postgres", config.PostgresTestDSN())
	assert.NoError(t, openErr, "error opening lazy db handle in test setup")
	defer func() { _ = db.Close() }()

	_, err := postgresengine.NewAvailabilityQueryEngineFromSQLDB(db, postgresengine.WithSlotsTableName(""))
	assert.ErrorIs(t, err, booking.ErrEmptySlotsTableNameSupplied)

	_, err = postgresengine.NewAvailabilityQueryEngineFromSQLDB(db, postgresengine.WithHoldersTableName(""))
	assert.ErrorIs(t, err, booking.ErrEmptyHoldersTableNameSupplied)

	_, err = postgresengine.NewAvailabilityQueryEngineFromSQLDB(db, postgresengine.WithCache(nil))
	assert.ErrorIs(t, err, booking.ErrNilCacheSupplied)

	_, err = postgresengine.NewReservationCoordinatorFromSQLDB(db, postgresengine.WithSlotsTableName(""))
	assert.ErrorIs(t, err, booking.ErrEmptySlotsTableNameSupplied)
}

func Test_Options_CustomTableNames_AreAccepted(t *testing.T) {
	db, openErr := sql.Open("postgres", config.PostgresTestDSN())
	assert.NoError(t, openErr, "error opening lazy db handle in test setup")
	defer func() { _ = db.Close() }()

	_, err := postgresengine.NewAvailabilityQueryEngineFromSQLDB(
		db,
		postgresengine.WithSlotsTableName("custom_slots"),
		postgresengine.WithHoldersTableName("custom_holders"))
	assert.NoError(t, err)

	_, err = postgresengine.NewReservationCoordinatorFromSQLDB(
		db,
		postgresengine.WithSlotsTableName("custom_slots"))
	assert.NoError(t, err)
}
