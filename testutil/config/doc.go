// Package config provides database configuration for booking tests.
//
// This package contains factory functions for creating connections using
// the booking engine's supported PostgreSQL adapters (pgx.Pool, sql.DB,
// sqlx.DB) plus a Redis client for bucket cache tests, all with
// pre-configured test DSNs.
package config
