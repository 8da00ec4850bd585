// Package helper provides testing utilities for the booking test suite.
//
// This package contains fixture builders for capability holders and slots,
// shared fixture capability values, and in-memory cache test doubles used
// across the availability and reservation tests.
package helper
