package realtime

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds the client behind the per-user notification channels.
// Addr and password come from config, not read here.
func NewRedis(addr, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	log.Printf("Redis client created (addr: %s)\n", addr)
	return rdb
}
