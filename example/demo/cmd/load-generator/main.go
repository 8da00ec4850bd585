package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bookable-dev/slot-booking-go/booking/postgresengine"
	"github.com/bookable-dev/slot-booking-go/booking/rediscache"
	"github.com/bookable-dev/slot-booking-go/testutil/config"
)

const (
	defaultRate           = 30
	defaultHolders        = 10
	defaultSlotsPerHolder = 20
)

type Config struct {
	Rate            int
	Holders         int
	SlotsPerHolder  int
	RedisCache      bool
	VerboseLogging  bool
	CacheTTLSeconds int
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize database connection
	pgxPool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolTestConfig())
	if err != nil {
		log.Fatalf("Failed to create pgx pool: %v", err)
	}
	defer pgxPool.Close()

	// Test database connection
	if err := pgxPool.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	options := buildEngineOptions(cfg)

	engine, err := postgresengine.NewAvailabilityQueryEngineFromPGXPool(pgxPool, options...)
	if err != nil {
		log.Fatalf("Failed to create availability engine: %v", err)
	}

	coordinator, err := postgresengine.NewReservationCoordinatorFromPGXPool(pgxPool, options...)
	if err != nil {
		log.Fatalf("Failed to create reservation coordinator: %v", err)
	}

	loadGen := NewLoadGenerator(pgxPool, engine, coordinator, cfg)

	// Start load generation in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := loadGen.Start(ctx); err != nil {
			errChan <- fmt.Errorf("load generator failed: %w", err)
		}
	}()

	log.Printf("Booking Load Generator started")
	log.Printf("Configuration: rate=%d req/s, holders=%d, slots_per_holder=%d, redis_cache=%v",
		cfg.Rate, cfg.Holders, cfg.SlotsPerHolder, cfg.RedisCache)
	log.Printf("Press Ctrl+C to stop...")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case err := <-errChan:
		log.Printf("Error occurred: %v", err)
		cancel()
	}

	// Give some time for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Load generator stopped")
}

func parseFlags() Config {
	var (
		rate           = flag.Int("rate", defaultRate, "Reservation requests per second")
		holders        = flag.Int("holders", defaultHolders, "Number of capability holders to seed")
		slotsPerHolder = flag.Int("slots-per-holder", defaultSlotsPerHolder, "Number of slots to seed per holder")
		redisCache     = flag.Bool("redis-cache", false, "Front availability queries with the Redis bucket cache")
		verbose        = flag.Bool("verbose", false, "Log SQL queries and operations to stderr")
		cacheTTL       = flag.Int("cache-ttl", 5, "Bucket cache TTL in seconds")
	)

	flag.Parse()

	return Config{
		Rate:            *rate,
		Holders:         *holders,
		SlotsPerHolder:  *slotsPerHolder,
		RedisCache:      *redisCache,
		VerboseLogging:  *verbose,
		CacheTTLSeconds: *cacheTTL,
	}
}

// buildEngineOptions wires the optional logger and Redis cache into the engines.
func buildEngineOptions(cfg Config) []postgresengine.Option {
	var options []postgresengine.Option

	if cfg.VerboseLogging {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		options = append(options, postgresengine.WithLogger(logger))
	}

	if cfg.RedisCache {
		client := redis.NewClient(&redis.Options{Addr: config.RedisTestAddr()})
		cache := rediscache.New(
			client,
			rediscache.WithKeyPrefix("load-generator"),
			rediscache.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second))
		options = append(options, postgresengine.WithCache(cache))
	}

	return options
}
