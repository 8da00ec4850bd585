package postgresengine

import (
	"time"

	"github.com/bookable-dev/slot-booking-go/booking"
)

// Logger interface for SQL query logging, operational messages, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting booking engine performance and operational metrics.
// It is dependency-free so users can integrate with any metrics backend
// (Prometheus, OpenTelemetry, StatsD, ...) by implementing this interface.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

const (
	defaultSlotsTableName   = "slots"
	defaultHoldersTableName = "capability_holders"
)

// settings holds the configurable collaborators shared by the
// AvailabilityQueryEngine and the ReservationCoordinator.
type settings struct {
	slotsTableName   string
	holdersTableName string
	logger           Logger
	metricsCollector MetricsCollector
	cache            booking.BucketCache
}

func defaultSettings() settings {
	return settings{
		slotsTableName:   defaultSlotsTableName,
		holdersTableName: defaultHoldersTableName,
	}
}

// Option defines a functional option for configuring the booking engines.
type Option func(*settings) error

// WithSlotsTableName sets the name of the slots table.
func WithSlotsTableName(tableName string) Option {
	return func(s *settings) error {
		if tableName == "" {
			return booking.ErrEmptySlotsTableNameSupplied
		}

		s.slotsTableName = tableName

		return nil
	}
}

// WithHoldersTableName sets the name of the capability holders table.
func WithHoldersTableName(tableName string) Option {
	return func(s *settings) error {
		if tableName == "" {
			return booking.ErrEmptyHoldersTableNameSupplied
		}

		s.holdersTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: bucket counts, claims, durations (production-safe)
// Warn level: non-critical issues like cache read/write failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the engine.
// The collector will receive query/reservation durations, bucket counts,
// cache hit/miss counters, claim and exhaustion counters.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *settings) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithCache sets the bucket cache fronting availability queries.
// Only the AvailabilityQueryEngine consults the cache; the
// ReservationCoordinator never reads or writes it.
func WithCache(cache booking.BucketCache) Option {
	return func(s *settings) error {
		if cache == nil {
			return booking.ErrNilCacheSupplied
		}

		s.cache = cache

		return nil
	}
}
