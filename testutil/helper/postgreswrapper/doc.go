// Package postgreswrapper provides test utilities for abstracting over different PostgreSQL database adapters.
//
// This package enables testing of the booking implementation across multiple database drivers
// (pgx, sql.DB, sqlx.DB) using a common Wrapper interface. The specific adapter type is determined
// by the ADAPTER_TYPE environment variable, allowing the same test suite to run against different
// database implementations.
//
// Key features:
//   - Unified interface for different PostgreSQL adapters
//   - Schema bootstrap, cleanup and direct-row inspection utilities
//   - Environment-based adapter selection for CI/CD flexibility
//
// Usage:
//
//	// Create wrapper for testing
//	wrapper := CreateWrapperWithTestConfig(t)
//	defer wrapper.Close()
//
//	// Bootstrap schema and clean up between tests
//	EnsureSchema(t, wrapper)
//	CleanUp(t, wrapper)
//
//	// Use the engines
//	engine := wrapper.GetAvailabilityEngine()
//	coordinator := wrapper.GetReservationCoordinator()
package postgreswrapper
