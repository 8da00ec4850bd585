package postgresengine

import (
	"math"
	"time"
)

const (
	logMsgSQLExecuted     = "executed sql for: "
	logMsgOperation       = "booking operation: "
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
	logAttrCacheKey       = "cache_key"
	logAttrBucketCount    = "bucket_count"
	logAttrSlotID         = "slot_id"
	logAttrRequesterID    = "requester_id"
	logAttrCandidateCount = "candidate_count"

	metricQueryDuration       = "booking_availability_query_duration"
	metricBucketsReturned     = "booking_availability_buckets_returned"
	metricCacheHits           = "booking_availability_cache_hits"
	metricCacheMisses         = "booking_availability_cache_misses"
	metricReservationDuration = "booking_reservation_duration"
	metricSlotsClaimed        = "booking_reservation_slots_claimed"
	metricCandidatesSkipped   = "booking_reservation_candidates_skipped"
	metricExhausted           = "booking_reservation_exhausted"

	labelOperation   = "operation"
	labelStatus      = "status"
	operationQuery   = "query_availability"
	operationReserve = "reserve_slot"
	statusSuccess    = "success"
	statusError      = "error"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (s settings) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (s settings) logOperation(action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level if the logger is configured.
func (s settings) logWarn(message string, err error, args ...any) {
	if s.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		s.logger.Warn(message, allArgs...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (s settings) logError(message string, err error, args ...any) {
	if s.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		s.logger.Error(message, allArgs...)
	}
}

// recordDuration records a duration metric if the metrics collector is configured.
func (s settings) recordDuration(metric string, duration time.Duration, operation, status string) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metric, duration, map[string]string{
			labelOperation: operation,
			labelStatus:    status,
		})
	}
}

// recordValue records a value metric if the metrics collector is configured.
func (s settings) recordValue(metric string, value float64, operation, status string) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordValue(metric, value, map[string]string{
			labelOperation: operation,
			labelStatus:    status,
		})
	}
}

// incrementCounter increments a counter metric if the metrics collector is configured.
func (s settings) incrementCounter(metric string, operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, map[string]string{
			labelOperation: operation,
		})
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
