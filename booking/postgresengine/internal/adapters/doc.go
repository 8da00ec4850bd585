// Package adapters provides database adapter implementations for the
// PostgreSQL booking engines.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the
// availability query engine and the reservation coordinator to work
// seamlessly with any supported database connection type.
//
// In addition to plain query execution, the adapters expose transactions
// (DBTx) because the reservation coordinator claims a slot inside a single
// transaction using non-blocking row locks.
package adapters
