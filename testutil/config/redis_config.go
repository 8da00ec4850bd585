package config

import "github.com/redis/go-redis/v9"

// RedisTestAddr returns the address of the test Redis instance.
func RedisTestAddr() string {
	return "localhost:6379"
}

// RedisTestClient creates a Redis client for the test instance.
func RedisTestClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: RedisTestAddr(),
		DB:   1,
	})
}
