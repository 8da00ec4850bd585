package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine"
	"github.com/bookable-dev/slot-booking-go/testutil/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

const createSchemaStatement = `
CREATE TABLE IF NOT EXISTS capability_holders (
	id UUID PRIMARY KEY,
	languages TEXT[] NOT NULL DEFAULT '{}',
	customer_ratings TEXT[] NOT NULL DEFAULT '{}',
	products TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS slots (
	id UUID PRIMARY KEY,
	starts_at TIMESTAMPTZ NOT NULL,
	ends_at TIMESTAMPTZ NOT NULL,
	booked BOOLEAN NOT NULL DEFAULT FALSE,
	holder_id UUID NOT NULL REFERENCES capability_holders (id),
	requester_id UUID
);
CREATE INDEX IF NOT EXISTS idx_slots_holder_id_starts_at ON slots (holder_id, starts_at);
`

// Wrapper interface to abstract over different engine types
type Wrapper interface {
	GetAvailabilityEngine() postgresengine.AvailabilityQueryEngine
	GetReservationCoordinator() postgresengine.ReservationCoordinator
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool        *pgxpool.Pool
	engine      postgresengine.AvailabilityQueryEngine
	coordinator postgresengine.ReservationCoordinator
}

func (e *PGXPoolWrapper) GetAvailabilityEngine() postgresengine.AvailabilityQueryEngine {
	return e.engine
}

func (e *PGXPoolWrapper) GetReservationCoordinator() postgresengine.ReservationCoordinator {
	return e.coordinator
}

func (e *PGXPoolWrapper) Close() {
	e.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db          *sql.DB
	engine      postgresengine.AvailabilityQueryEngine
	coordinator postgresengine.ReservationCoordinator
}

func (e *SQLDBWrapper) GetAvailabilityEngine() postgresengine.AvailabilityQueryEngine {
	return e.engine
}

func (e *SQLDBWrapper) GetReservationCoordinator() postgresengine.ReservationCoordinator {
	return e.coordinator
}

func (e *SQLDBWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db          *sqlx.DB
	engine      postgresengine.AvailabilityQueryEngine
	coordinator postgresengine.ReservationCoordinator
}

func (e *SQLXWrapper) GetAvailabilityEngine() postgresengine.AvailabilityQueryEngine {
	return e.engine
}

func (e *SQLXWrapper) GetReservationCoordinator() postgresengine.ReservationCoordinator {
	return e.coordinator
}

func (e *SQLXWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment variable
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		engine, err := postgresengine.NewAvailabilityQueryEngineFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating availability engine")

		coordinator, err := postgresengine.NewReservationCoordinatorFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating reservation coordinator")

		return &PGXPoolWrapper{pool: connPool, engine: engine, coordinator: coordinator}

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		engine, err := postgresengine.NewAvailabilityQueryEngineFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating availability engine")

		coordinator, err := postgresengine.NewReservationCoordinatorFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating reservation coordinator")

		return &SQLDBWrapper{db: db, engine: engine, coordinator: coordinator}

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		engine, err := postgresengine.NewAvailabilityQueryEngineFromSQLX(db, options...)
		assert.NoError(t, err, "error creating availability engine")

		coordinator, err := postgresengine.NewReservationCoordinatorFromSQLX(db, options...)
		assert.NoError(t, err, "error creating reservation coordinator")

		return &SQLXWrapper{db: db, engine: engine, coordinator: coordinator}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// EnsureSchema creates the slot and capability holder tables if they do not exist yet.
func EnsureSchema(t testing.TB, wrapper Wrapper) {
	Exec(t, wrapper, createSchemaStatement)
}

// CleanUp cleans up the slot and capability holder tables for the given wrapper
func CleanUp(t testing.TB, wrapper Wrapper) {
	Exec(t, wrapper, "TRUNCATE TABLE slots, capability_holders")
}

// Exec executes a fully interpolated SQL statement through the wrapped connection.
func Exec(t testing.TB, wrapper Wrapper, sqlStatement string) {
	switch e := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := e.pool.Exec(context.Background(), sqlStatement)
		assert.NoError(t, err, "error executing sql statement")

	case *SQLDBWrapper:
		_, err := e.db.Exec(sqlStatement)
		assert.NoError(t, err, "error executing sql statement")

	case *SQLXWrapper:
		_, err := e.db.Exec(sqlStatement)
		assert.NoError(t, err, "error executing sql statement")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", e))
	}
}

// GetSlotFromDB reads the current state of one slot row for the given wrapper
func GetSlotFromDB(t testing.TB, wrapper Wrapper, slotID string) booking.Slot {
	var slot booking.Slot
	var err error

	sqlQuery := fmt.Sprintf(
		`SELECT id, starts_at, ends_at, booked, holder_id, requester_id FROM slots WHERE id = '%s'`,
		slotID)

	switch e := wrapper.(type) {
	case *PGXPoolWrapper:
		row := e.pool.QueryRow(context.Background(), sqlQuery)
		err = row.Scan(&slot.ID, &slot.StartsAt, &slot.EndsAt, &slot.Booked, &slot.HolderID, &slot.RequesterID)

	case *SQLDBWrapper:
		row := e.db.QueryRow(sqlQuery)
		err = row.Scan(&slot.ID, &slot.StartsAt, &slot.EndsAt, &slot.Booked, &slot.HolderID, &slot.RequesterID)

	case *SQLXWrapper:
		row := e.db.QueryRow(sqlQuery)
		err = row.Scan(&slot.ID, &slot.StartsAt, &slot.EndsAt, &slot.Booked, &slot.HolderID, &slot.RequesterID)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", e))
	}

	assert.NoError(t, err, "error reading slot row in test")
	return slot
}

// CountBookedSlotsInDB counts the booked slot rows for the given wrapper
func CountBookedSlotsInDB(t testing.TB, wrapper Wrapper) int {
	var count int
	var err error

	const sqlQuery = `SELECT count(*) FROM slots WHERE booked = TRUE`

	switch e := wrapper.(type) {
	case *PGXPoolWrapper:
		row := e.pool.QueryRow(context.Background(), sqlQuery)
		err = row.Scan(&count)

	case *SQLDBWrapper:
		row := e.db.QueryRow(sqlQuery)
		err = row.Scan(&count)

	case *SQLXWrapper:
		row := e.db.QueryRow(sqlQuery)
		err = row.Scan(&count)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", e))
	}

	assert.NoError(t, err, "error counting booked slots in test")
	return count
}
