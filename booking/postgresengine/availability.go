package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine/internal/adapters"
)

const (
	logMsgBuildSelectQueryFailed = "failed to build availability select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgRowIterationFailed     = "row iteration failed"
	logMsgCacheReadFailed        = "cache read failed, falling back to the store"
	logMsgCacheWriteFailed       = "cache write failed, returning uncached result"
	logMsgAvailabilityComputed   = "availability computed"

	logActionAvailabilityQuery = "availability query"

	colID              = "id"
	colStartsAt        = "starts_at"
	colEndsAt          = "ends_at"
	colBooked          = "booked"
	colHolderID        = "holder_id"
	colRequesterID     = "requester_id"
	colLanguages       = "languages"
	colCustomerRatings = "customer_ratings"
	colProducts        = "products"

	aliasSlot       = "s"
	aliasHolder     = "h"
	aliasBookedSlot = "o"

	dialectPostgres = "postgres"
)

type sqlQueryString = string

// AvailabilityQueryEngine computes grouped, overlap-free availability buckets
// for a single calendar day from the slot and capability holder tables.
// It holds no locks and may run fully concurrently with reservations; a
// returned bucket is a snapshot, not a reservation hold.
type AvailabilityQueryEngine struct {
	db       adapters.DBAdapter
	settings settings
}

// NewAvailabilityQueryEngineFromPGXPool creates a new AvailabilityQueryEngine using a pgx pool with optional configuration.
func NewAvailabilityQueryEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (AvailabilityQueryEngine, error) {
	if db == nil {
		return AvailabilityQueryEngine{}, booking.ErrNilDatabaseConnection
	}

	return newAvailabilityQueryEngine(adapters.NewPGXAdapter(db), options...)
}

// NewAvailabilityQueryEngineFromSQLDB creates a new AvailabilityQueryEngine using a sql.DB with optional configuration.
func NewAvailabilityQueryEngineFromSQLDB(db *sql.DB, options ...Option) (AvailabilityQueryEngine, error) {
	if db == nil {
		return AvailabilityQueryEngine{}, booking.ErrNilDatabaseConnection
	}

	return newAvailabilityQueryEngine(adapters.NewSQLAdapter(db), options...)
}

// NewAvailabilityQueryEngineFromSQLX creates a new AvailabilityQueryEngine using a sqlx.DB with optional configuration.
func NewAvailabilityQueryEngineFromSQLX(db *sqlx.DB, options ...Option) (AvailabilityQueryEngine, error) {
	if db == nil {
		return AvailabilityQueryEngine{}, booking.ErrNilDatabaseConnection
	}

	return newAvailabilityQueryEngine(adapters.NewSQLXAdapter(db), options...)
}

func newAvailabilityQueryEngine(db adapters.DBAdapter, options ...Option) (AvailabilityQueryEngine, error) {
	engine := AvailabilityQueryEngine{
		db:       db,
		settings: defaultSettings(),
	}

	for _, option := range options {
		if err := option(&engine.settings); err != nil {
			return AvailabilityQueryEngine{}, err
		}
	}

	return engine, nil
}

// Query returns the availability buckets matching the filter, ordered by
// start timestamp ascending.
//
// A configured cache is consulted first; a hit bypasses the store entirely.
// Cache failures are never propagated: a failed read degrades to a store
// read and a failed write leaves the freshly computed result untouched.
// An empty holder resolution yields an empty bucket sequence, not an error.
func (e AvailabilityQueryEngine) Query(ctx context.Context, filter booking.AvailabilityFilter) (booking.Buckets, error) {
	var empty booking.Buckets

	if buckets, served := e.lookupCache(ctx, filter); served {
		return buckets, nil
	}

	sqlQuery, buildQueryErr := e.buildAvailabilityQuery(filter)
	if buildQueryErr != nil {
		e.settings.logError(logMsgBuildSelectQueryFailed, buildQueryErr)
		return empty, buildQueryErr
	}

	rows, duration, queryErr := e.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		e.settings.recordDuration(metricQueryDuration, duration, operationQuery, statusError)
		return empty, queryErr
	}
	defer e.closeRows(rows)

	slotRefs, scanErr := e.scanAvailableSlotRefs(rows)
	if scanErr != nil {
		return empty, scanErr
	}

	buckets := booking.GroupAvailableSlots(slotRefs)

	e.populateCache(ctx, filter, buckets)

	e.settings.logOperation(
		logMsgAvailabilityComputed,
		logAttrCacheKey, filter.CacheKey(),
		logAttrBucketCount, len(buckets),
		logAttrDurationMS, toMilliseconds(duration))
	e.settings.recordDuration(metricQueryDuration, duration, operationQuery, statusSuccess)
	e.settings.recordValue(metricBucketsReturned, float64(len(buckets)), operationQuery, statusSuccess)

	return buckets, nil
}

// lookupCache consults the configured cache and reports whether the result
// was served from it. A read failure is logged and treated as a miss.
func (e AvailabilityQueryEngine) lookupCache(ctx context.Context, filter booking.AvailabilityFilter) (booking.Buckets, bool) {
	if e.settings.cache == nil {
		return nil, false
	}

	cacheKey := filter.CacheKey()

	buckets, hit, err := e.settings.cache.Get(ctx, cacheKey)
	if err != nil {
		e.settings.logWarn(logMsgCacheReadFailed, err, logAttrCacheKey, cacheKey)
		return nil, false
	}

	if !hit {
		e.settings.incrementCounter(metricCacheMisses, operationQuery)
		return nil, false
	}

	e.settings.incrementCounter(metricCacheHits, operationQuery)

	return buckets, true
}

// populateCache stores the freshly computed buckets; a write failure is
// logged and does not affect the returned result.
func (e AvailabilityQueryEngine) populateCache(ctx context.Context, filter booking.AvailabilityFilter, buckets booking.Buckets) {
	if e.settings.cache == nil {
		return
	}

	if err := e.settings.cache.Set(ctx, filter.CacheKey(), buckets); err != nil {
		e.settings.logWarn(logMsgCacheWriteFailed, err, logAttrCacheKey, filter.CacheKey())
	}
}

// executeQuery executes the SQL query and returns rows with timing information.
func (e AvailabilityQueryEngine) executeQuery(ctx context.Context, sqlQuery sqlQueryString) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.settings.logQueryWithDuration(sqlQuery, logActionAvailabilityQuery, duration)

	if queryErr != nil {
		e.settings.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(booking.ErrQueryingSlotsFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (e AvailabilityQueryEngine) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.settings.logWarn(logMsgCloseRowsFailed, closeErr)
	}
}

// scanAvailableSlotRefs converts the database rows into ordered slot refs
// ready for grouping.
func (e AvailabilityQueryEngine) scanAvailableSlotRefs(rows adapters.DBRows) ([]booking.AvailableSlotRef, error) {
	slotRefs := make([]booking.AvailableSlotRef, 0)

	for rows.Next() {
		var ref booking.AvailableSlotRef

		if rowScanErr := rows.Scan(&ref.ID, &ref.StartsAt); rowScanErr != nil {
			e.settings.logError(logMsgScanRowFailed, rowScanErr)

			return nil, errors.Join(booking.ErrScanningDBRowFailed, rowScanErr)
		}

		slotRefs = append(slotRefs, ref)
	}

	// drivers like pgx defer execution errors until iteration finished, so a
	// clean-looking empty result may actually be a failed query
	if rowsErr := rows.Err(); rowsErr != nil {
		e.settings.logError(logMsgRowIterationFailed, rowsErr)

		return nil, errors.Join(booking.ErrQueryingSlotsFailed, rowsErr)
	}

	return slotRefs, nil
}

// buildAvailabilityQuery builds the single SQL pass of the availability
// computation: unbooked slots of capability-matching holders inside the
// half-open day window, minus slots whose holder has a different booked slot
// overlapping them (strict inequalities, so touching slots survive), ordered
// by start timestamp and id.
func (e AvailabilityQueryEngine) buildAvailabilityQuery(filter booking.AvailabilityFilter) (sqlQueryString, error) {
	builder := goqu.Dialect(dialectPostgres)
	windowFrom, windowUntil := filter.Window()

	overlapStmt := builder.
		From(goqu.T(e.settings.slotsTableName).As(aliasBookedSlot)).
		Select(goqu.L("1")).
		Where(
			goqu.L(fmt.Sprintf("%s.%s = %s.%s", aliasBookedSlot, colHolderID, aliasSlot, colHolderID)),
			goqu.I(aliasBookedSlot+"."+colBooked).IsTrue(),
			goqu.L(fmt.Sprintf("%s.%s < %s.%s", aliasBookedSlot, colStartsAt, aliasSlot, colEndsAt)),
			goqu.L(fmt.Sprintf("%s.%s > %s.%s", aliasBookedSlot, colEndsAt, aliasSlot, colStartsAt)),
		)

	selectStmt := builder.
		From(goqu.T(e.settings.slotsTableName).As(aliasSlot)).
		Join(
			goqu.T(e.settings.holdersTableName).As(aliasHolder),
			goqu.On(goqu.L(fmt.Sprintf("%s.%s = %s.%s", aliasHolder, colID, aliasSlot, colHolderID))),
		).
		Select(goqu.I(aliasSlot+"."+colID), goqu.I(aliasSlot+"."+colStartsAt)).
		Where(
			goqu.I(aliasSlot+"."+colBooked).IsFalse(),
			goqu.I(aliasSlot+"."+colStartsAt).Gte(windowFrom),
			goqu.I(aliasSlot+"."+colStartsAt).Lt(windowUntil),
			goqu.L(fmt.Sprintf("%s.%s && %s", aliasHolder, colLanguages, textArrayLiteral(filter.Language()))),
			goqu.L(fmt.Sprintf("%s.%s && %s", aliasHolder, colCustomerRatings, textArrayLiteral(filter.Rating()))),
			goqu.L(fmt.Sprintf("%s.%s @> %s", aliasHolder, colProducts, textArrayLiteral(filter.Products()...))),
			goqu.L("NOT EXISTS ?", overlapStmt),
		).
		Order(
			goqu.I(aliasSlot+"."+colStartsAt).Asc(),
			goqu.I(aliasSlot+"."+colID).Asc(),
		)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(booking.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// textArrayLiteral renders values as a Postgres text[] literal, with single
// quotes doubled.
func textArrayLiteral(values ...string) string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}

	return "ARRAY[" + strings.Join(quoted, ",") + "]::text[]"
}
