package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine/internal/adapters"
)

const (
	logMsgBeginTxFailed       = "failed to begin the reservation transaction"
	logMsgCommitTxFailed      = "failed to commit the reservation transaction"
	logMsgRollbackTxFailed    = "failed to roll back the reservation transaction"
	logMsgReservationAborted  = "reservation attempt aborted"
	logMsgSlotReserved        = "slot reserved"
	logMsgCandidatesExhausted = "candidate list exhausted without a claim"
	logActionCandidateProbe   = "candidate probe"
	logActionClaimUpdate      = "claim update"
)

// errClaimedRowVanished guards the invariant that an update on a row locked
// by this transaction always returns that row.
var errClaimedRowVanished = errors.New("claim update returned no row despite the held lock")

// ReservationCoordinator atomically claims exactly one slot from an ordered
// candidate list while competing requests run in parallel.
//
// All mutual exclusion comes from the store's row-level locks: each candidate
// is probed with a non-blocking exclusive lock (FOR UPDATE SKIP LOCKED), so a
// row contested by a concurrent in-flight reservation is skipped immediately
// rather than awaited. This bounds latency and cannot deadlock even when two
// requests list the same slots in different orders.
type ReservationCoordinator struct {
	db       adapters.DBAdapter
	settings settings
}

// NewReservationCoordinatorFromPGXPool creates a new ReservationCoordinator using a pgx pool with optional configuration.
func NewReservationCoordinatorFromPGXPool(db *pgxpool.Pool, options ...Option) (ReservationCoordinator, error) {
	if db == nil {
		return ReservationCoordinator{}, booking.ErrNilDatabaseConnection
	}

	return newReservationCoordinator(adapters.NewPGXAdapter(db), options...)
}

// NewReservationCoordinatorFromSQLDB creates a new ReservationCoordinator using a sql.DB with optional configuration.
func NewReservationCoordinatorFromSQLDB(db *sql.DB, options ...Option) (ReservationCoordinator, error) {
	if db == nil {
		return ReservationCoordinator{}, booking.ErrNilDatabaseConnection
	}

	return newReservationCoordinator(adapters.NewSQLAdapter(db), options...)
}

// NewReservationCoordinatorFromSQLX creates a new ReservationCoordinator using a sqlx.DB with optional configuration.
func NewReservationCoordinatorFromSQLX(db *sqlx.DB, options ...Option) (ReservationCoordinator, error) {
	if db == nil {
		return ReservationCoordinator{}, booking.ErrNilDatabaseConnection
	}

	return newReservationCoordinator(adapters.NewSQLXAdapter(db), options...)
}

func newReservationCoordinator(db adapters.DBAdapter, options ...Option) (ReservationCoordinator, error) {
	coordinator := ReservationCoordinator{
		db:       db,
		settings: defaultSettings(),
	}

	for _, option := range options {
		if err := option(&coordinator.settings); err != nil {
			return ReservationCoordinator{}, err
		}
	}

	return coordinator, nil
}

// Reserve claims exactly one slot from the request's candidate list, tried
// strictly in the caller-supplied order inside a single transaction.
//
// A candidate whose row is locked by a concurrent attempt, or already booked,
// is skipped and the next one is tried. The first claimable candidate is
// booked for the requester and returned; no further candidates are examined.
// When every candidate is exhausted, the mutation-free transaction still
// commits and booking.ErrNoSlotAvailable is returned — an expected outcome,
// to be checked with errors.Is.
//
// Any transaction-level fault aborts the attempt and surfaces as
// booking.ErrReservationFailed carrying the underlying cause. The
// coordinator never retries; retry policy belongs to the caller.
func (c ReservationCoordinator) Reserve(ctx context.Context, request booking.ReservationRequest) (booking.Slot, error) {
	var empty booking.Slot

	start := time.Now()

	tx, beginErr := c.db.BeginTx(ctx)
	if beginErr != nil {
		c.settings.logError(logMsgBeginTxFailed, beginErr)
		return empty, errors.Join(booking.ErrReservationFailed, beginErr)
	}

	for _, candidateID := range request.CandidateSlotIDs {
		lockAcquired, probeErr := c.probeCandidate(ctx, tx, candidateID)
		if probeErr != nil {
			return empty, c.abort(ctx, tx, probeErr)
		}

		if !lockAcquired {
			c.settings.incrementCounter(metricCandidatesSkipped, operationReserve)
			continue
		}

		claimedSlot, claimErr := c.claimCandidate(ctx, tx, candidateID, request.RequesterID)
		if claimErr != nil {
			return empty, c.abort(ctx, tx, claimErr)
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			c.settings.logError(logMsgCommitTxFailed, commitErr, logAttrSlotID, candidateID.String())
			return empty, errors.Join(booking.ErrReservationFailed, commitErr)
		}

		duration := time.Since(start)
		c.settings.logOperation(
			logMsgSlotReserved,
			logAttrSlotID, claimedSlot.ID.String(),
			logAttrRequesterID, request.RequesterID.String(),
			logAttrDurationMS, toMilliseconds(duration))
		c.settings.recordDuration(metricReservationDuration, duration, operationReserve, statusSuccess)
		c.settings.incrementCounter(metricSlotsClaimed, operationReserve)

		return claimedSlot, nil
	}

	// no mutation happened, the exhausted transaction commits as a no-op
	if commitErr := tx.Commit(ctx); commitErr != nil {
		c.settings.logError(logMsgCommitTxFailed, commitErr)
		return empty, errors.Join(booking.ErrReservationFailed, commitErr)
	}

	c.settings.logOperation(
		logMsgCandidatesExhausted,
		logAttrRequesterID, request.RequesterID.String(),
		logAttrCandidateCount, len(request.CandidateSlotIDs))
	c.settings.recordDuration(metricReservationDuration, time.Since(start), operationReserve, statusSuccess)
	c.settings.incrementCounter(metricExhausted, operationReserve)

	return empty, booking.ErrNoSlotAvailable
}

// abort rolls the transaction back and wraps the cause into the single
// reservation failure surfaced to the caller.
func (c ReservationCoordinator) abort(ctx context.Context, tx adapters.DBTx, cause error) error {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		c.settings.logWarn(logMsgRollbackTxFailed, rollbackErr)
	}

	c.settings.logError(logMsgReservationAborted, cause)

	return errors.Join(booking.ErrReservationFailed, cause)
}

// probeCandidate attempts to acquire a non-blocking exclusive lock on the
// candidate's row, provided it is still unbooked. It reports false both when
// the row is locked by a concurrent transaction (SKIP LOCKED hides it) and
// when the slot is already booked — the caller moves on either way.
//
// The booked re-check happens under the acquired lock, which closes the
// window where a row was free to lock but finalized by a just-committed
// concurrent transaction.
func (c ReservationCoordinator) probeCandidate(ctx context.Context, tx adapters.DBTx, candidateID uuid.UUID) (bool, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(c.settings.slotsTableName).
		Select(colID).
		Where(
			goqu.C(colID).Eq(candidateID.String()),
			goqu.C(colBooked).IsFalse(),
		).
		ForUpdate(exp.SkipLocked)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return false, errors.Join(booking.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	c.settings.logQueryWithDuration(sqlQuery, logActionCandidateProbe, time.Since(start))

	if queryErr != nil {
		return false, queryErr
	}
	defer c.closeRows(rows)

	lockAcquired := rows.Next()

	// pgx defers execution errors until iteration, a false Next may hide a
	// failed probe rather than a locked or booked row
	if rowsErr := rows.Err(); rowsErr != nil {
		return false, rowsErr
	}

	return lockAcquired, nil
}

// claimCandidate books the locked candidate for the requester and returns
// the claimed slot.
func (c ReservationCoordinator) claimCandidate(
	ctx context.Context,
	tx adapters.DBTx,
	candidateID uuid.UUID,
	requesterID uuid.UUID,
) (booking.Slot, error) {

	var empty booking.Slot

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(c.settings.slotsTableName).
		Set(goqu.Record{
			colBooked:      true,
			colRequesterID: requesterID.String(),
		}).
		Where(goqu.C(colID).Eq(candidateID.String())).
		Returning(colID, colStartsAt, colEndsAt, colBooked, colHolderID, colRequesterID)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return empty, errors.Join(booking.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	c.settings.logQueryWithDuration(sqlQuery, logActionClaimUpdate, time.Since(start))

	if queryErr != nil {
		return empty, queryErr
	}
	defer c.closeRows(rows)

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return empty, rowsErr
		}

		return empty, errClaimedRowVanished
	}

	var claimedSlot booking.Slot
	scanErr := rows.Scan(
		&claimedSlot.ID,
		&claimedSlot.StartsAt,
		&claimedSlot.EndsAt,
		&claimedSlot.Booked,
		&claimedSlot.HolderID,
		&claimedSlot.RequesterID,
	)
	if scanErr != nil {
		return empty, errors.Join(booking.ErrScanningDBRowFailed, scanErr)
	}

	return claimedSlot, nil
}

// closeRows safely closes database rows and logs any errors.
func (c ReservationCoordinator) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.settings.logWarn(logMsgCloseRowsFailed, closeErr)
	}
}
