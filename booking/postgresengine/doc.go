// Package postgresengine provides the PostgreSQL implementation of the
// booking core: the availability query engine and the reservation
// coordinator.
//
// Both components support multiple database adapters (pgx, sql.DB, sqlx)
// and add no in-process locking — the store's row-level locks are the sole
// mutual-exclusion mechanism for reservations.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Single-pass availability computation with same-holder overlap exclusion
//   - Read-through bucket caching with fail-open cache semantics
//   - Transaction-scoped sequential candidate scan with skip-on-contention
//     (FOR UPDATE SKIP LOCKED), so competing reservations never deadlock and
//     never double-book
//   - Configurable table names and injectable logger/metrics collector
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	engine, _ := postgresengine.NewAvailabilityQueryEngineFromPGXPool(db)
//	coordinator, _ := postgresengine.NewReservationCoordinatorFromPGXPool(db)
//
//	// With a Redis-backed bucket cache and operational logging
//	engine, _ := postgresengine.NewAvailabilityQueryEngineFromPGXPool(
//		db,
//		postgresengine.WithCache(rediscache.New(redisClient)),
//		postgresengine.WithLogger(logger),
//	)
//
//	buckets, _ := engine.Query(ctx, filter)
//	slot, err := coordinator.Reserve(ctx, request)
package postgresengine
