// Package main implements a load generator driving the availability engine and
// the reservation coordinator with configurable request rates, so lock
// contention between competing reservations can be observed under load.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookable-dev/slot-booking-go/booking"
	"github.com/bookable-dev/slot-booking-go/booking/postgresengine"
)

const (
	seedLanguage = "German"
	seedRating   = "Gold"
	seedProduct  = "SolarPanels"

	maxCandidatesPerRequest = 5
)

// LoadGenerator orchestrates realistic booking load: every request queries
// availability for the seeded day and then races to reserve one of the first
// few returned slots, the same way competing customers would.
type LoadGenerator struct {
	pool        *pgxpool.Pool
	engine      postgresengine.AvailabilityQueryEngine
	coordinator postgresengine.ReservationCoordinator
	config      Config

	seededDay time.Time

	// Rate limiting
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics and state
	requestCount   int64
	claimCount     int64
	exhaustedCount int64
	errorCount     int64
	startTime      time.Time
	mu             sync.RWMutex
}

// NewLoadGenerator creates a new LoadGenerator instance with the provided engines and configuration.
func NewLoadGenerator(
	pool *pgxpool.Pool,
	engine postgresengine.AvailabilityQueryEngine,
	coordinator postgresengine.ReservationCoordinator,
	config Config,
) *LoadGenerator {

	return &LoadGenerator{
		pool:        pool,
		engine:      engine,
		coordinator: coordinator,
		config:      config,
		seededDay:   time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour),
		stopChan:    make(chan struct{}),
	}
}

// Start seeds the database and runs the load generation loop until the
// context is canceled or Stop is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	if err := lg.seed(ctx); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v)", lg.config.Rate, interval)

	// Start metrics reporting goroutine
	lg.wg.Add(1)
	go lg.metricsReporter(ctx)

	// Main load generation loop
	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeBookingAttempt(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	close(lg.stopChan)

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logFinalStats()
		return nil
	case <-ctx.Done():
		lg.logFinalStats()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// seed truncates the booking tables and inserts fresh capability holders with
// free slots on the seeded day.
func (lg *LoadGenerator) seed(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS capability_holders (
			id UUID PRIMARY KEY,
			languages TEXT[] NOT NULL DEFAULT '{}',
			customer_ratings TEXT[] NOT NULL DEFAULT '{}',
			products TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			id UUID PRIMARY KEY,
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			booked BOOLEAN NOT NULL DEFAULT FALSE,
			holder_id UUID NOT NULL REFERENCES capability_holders (id),
			requester_id UUID
		)`,
		`TRUNCATE TABLE slots, capability_holders`,
	}

	for _, statement := range statements {
		if _, err := lg.pool.Exec(ctx, statement); err != nil {
			return err
		}
	}

	for h := 0; h < lg.config.Holders; h++ {
		holderID, err := uuid.NewV7()
		if err != nil {
			return err
		}

		insertHolder := fmt.Sprintf(
			`INSERT INTO capability_holders (id, languages, customer_ratings, products)
			 VALUES ('%s', ARRAY['%s']::text[], ARRAY['%s']::text[], ARRAY['%s']::text[])`,
			holderID.String(), seedLanguage, seedRating, seedProduct)
		if _, err = lg.pool.Exec(ctx, insertHolder); err != nil {
			return err
		}

		for s := 0; s < lg.config.SlotsPerHolder; s++ {
			slotID, slotErr := uuid.NewV7()
			if slotErr != nil {
				return slotErr
			}

			startsAt := lg.seededDay.Add(time.Duration(8+s) * time.Hour)
			insertSlot := fmt.Sprintf(
				`INSERT INTO slots (id, starts_at, ends_at, booked, holder_id)
				 VALUES ('%s', '%s', '%s', FALSE, '%s')`,
				slotID.String(),
				startsAt.Format(time.RFC3339Nano),
				startsAt.Add(time.Hour).Format(time.RFC3339Nano),
				holderID.String())
			if _, err = lg.pool.Exec(ctx, insertSlot); err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded %d holders with %d slots each on %s",
		lg.config.Holders, lg.config.SlotsPerHolder, lg.seededDay.Format("2006-01-02"))

	return nil
}

// executeBookingAttempt runs one availability query followed by one
// reservation attempt over the returned slots.
func (lg *LoadGenerator) executeBookingAttempt(ctx context.Context) {
	defer lg.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := booking.BuildAvailabilityFilter().
		OnDay(lg.seededDay).
		WithLanguage(seedLanguage).
		WithRating(seedRating).
		WithProducts(seedProduct).
		Finalize()

	buckets, queryErr := lg.engine.Query(opCtx, filter)
	if queryErr != nil {
		lg.countError(queryErr)
		return
	}

	candidateSlotIDs := flattenCandidates(buckets, maxCandidatesPerRequest)
	if len(candidateSlotIDs) == 0 {
		lg.countExhausted()
		return
	}

	requesterID, idErr := uuid.NewV7()
	if idErr != nil {
		lg.countError(idErr)
		return
	}

	_, reserveErr := lg.coordinator.Reserve(opCtx, booking.BuildReservationRequest(requesterID, candidateSlotIDs...))

	switch {
	case reserveErr == nil:
		lg.countClaim()
	case errors.Is(reserveErr, booking.ErrNoSlotAvailable):
		lg.countExhausted()
	default:
		lg.countError(reserveErr)
	}
}

// flattenCandidates collects at most limit slot ids from the buckets,
// preserving the bucket order.
func flattenCandidates(buckets booking.Buckets, limit int) []uuid.UUID {
	candidates := make([]uuid.UUID, 0, limit)

	for _, bucket := range buckets {
		for _, slotID := range bucket.SlotIDs {
			if len(candidates) == limit {
				return candidates
			}

			candidates = append(candidates, slotID)
		}
	}

	// shuffle so competing requests do not all probe in the same order
	rand.Shuffle(len(candidates), func(i, j int) { //nolint:gosec // demo code, weak random is acceptable
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	return candidates
}

func (lg *LoadGenerator) countClaim() {
	lg.mu.Lock()
	lg.requestCount++
	lg.claimCount++
	lg.mu.Unlock()
}

func (lg *LoadGenerator) countExhausted() {
	lg.mu.Lock()
	lg.requestCount++
	lg.exhaustedCount++
	lg.mu.Unlock()
}

func (lg *LoadGenerator) countError(err error) {
	lg.mu.Lock()
	lg.requestCount++
	lg.errorCount++
	lg.mu.Unlock()

	log.Printf("Booking attempt error: %v", err)
}

// metricsReporter logs metrics periodically.
func (lg *LoadGenerator) metricsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logStats()
		}
	}
}

func (lg *LoadGenerator) logStats() {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	elapsed := time.Since(lg.startTime).Seconds()
	actualRate := float64(lg.requestCount) / elapsed

	log.Printf("Stats: requests=%d, claims=%d, exhausted=%d, errors=%d, rate=%.1f req/s",
		lg.requestCount, lg.claimCount, lg.exhaustedCount, lg.errorCount, actualRate)
}

func (lg *LoadGenerator) logFinalStats() {
	lg.mu.RLock()
	defer lg.mu.RUnlock()

	var summary strings.Builder
	summary.WriteString("Final stats: ")
	summary.WriteString(fmt.Sprintf("requests=%d, ", lg.requestCount))
	summary.WriteString(fmt.Sprintf("claims=%d, ", lg.claimCount))
	summary.WriteString(fmt.Sprintf("exhausted=%d, ", lg.exhaustedCount))
	summary.WriteString(fmt.Sprintf("errors=%d", lg.errorCount))

	log.Print(summary.String())
}
